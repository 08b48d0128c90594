// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package synth builds the desired child resources of an application.
//
// # Overview
//
// Every supported kind has one builder with the signature of Func. A
// builder reads only its own part of the normalized spec and returns a
// Descriptor holding a fully populated typed object:
//
//	Deployment / StatefulSet  container, volumes, affinity, replicas, stateful
//	Service                   service
//	ConfigMap                 configmap
//	Secret                    secret
//	PersistentVolumeClaim     pvc
//	Ingress                   ingress
//	HorizontalPodAutoscaler   hpa
//	Pod                       pod
//	Job                       job
//	CronJob                   cronjob
//
// Builders never talk to the cluster and are deterministic: the same input
// always yields an equal object, including its name.
//
// # Field Names
//
// Keys may be written in camelCase or snake_case ("targetPort" or
// "target_port"). Keys are converted to camelCase before decoding, except
// inside free-form maps such as labels, annotations and ConfigMap data.
// Each sub-tree is decoded strictly into typed Kubernetes structures, so an
// unknown or mistyped field fails with a SynthesisError naming the kind and
// the field.
//
// # Volumes
//
// A volume mount whose volume is not declared gets an emptyDir volume of the
// same name. The addition is logged and reported in Descriptor.Warnings.
//
// # Probes
//
// A probe must use exactly one of exec, httpGet and tcpSocket. Anything else
// is a ValidationError.
package synth
