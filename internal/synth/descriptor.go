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

package synth

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

const (
	// AppLabel identifies the application an object belongs to.
	AppLabel = "app"
	// InstanceLabel is the recommended instance label.
	InstanceLabel = "app.kubernetes.io/instance"
	// ManagedByLabel is the recommended managed-by label.
	ManagedByLabel = "app.kubernetes.io/managed-by"
	// ManagedBy is the value of ManagedByLabel on every child.
	ManagedBy = "appd"

	// DefaultImage is used when the container has no image.
	DefaultImage = "nginx"
	// DefaultReplicas is used when the spec sets no replica count.
	DefaultReplicas int32 = 1
	// DefaultServicePort is the port of the default service.
	DefaultServicePort int32 = 80
)

// Input is what every builder receives.
type Input struct {
	// Name is the name of the owning custom resource.
	Name string
	// Namespace is where the children live.
	Namespace string
	// Spec is the normalized application spec.
	Spec map[string]interface{}
}

// Descriptor is the desired state of one child resource.
type Descriptor struct {
	Kind      string
	Name      string
	Namespace string
	Object    client.Object
	// Warnings lists non-fatal adjustments made while building.
	Warnings []string
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s %s/%s", d.Kind, d.Namespace, d.Name)
}

// Func builds the descriptor of one kind.
type Func func(ctx context.Context, in Input) (*Descriptor, error)

// Labels returns the labels set on every child of the instance name.
func Labels(name string) map[string]string {
	return map[string]string{
		AppLabel:       name,
		InstanceLabel:  name,
		ManagedByLabel: ManagedBy,
	}
}

// SelectorLabels returns the labels used to select the pods of name.
func SelectorLabels(name string) map[string]string {
	return map[string]string{AppLabel: name}
}

// Child names, one per kind.
func DeploymentName(name string) string  { return name }
func StatefulSetName(name string) string { return name + "-stateful" }
func ServiceName(name string) string     { return name + "-svc" }
func ConfigMapName(name string) string   { return name + "-config" }
func SecretName(name string) string      { return name + "-secret" }
func PVCName(name string) string         { return name + "-pvc" }
func IngressName(name string) string     { return name + "-ingress" }
func HPAName(name string) string         { return name + "-hpa" }
func PodName(name string) string         { return name + "-pod" }
func JobName(name string) string         { return name + "-job" }
func CronJobName(name string) string     { return name + "-cronjob" }

func objectMeta(name, namespace, instance string, annotations map[string]string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:        name,
		Namespace:   namespace,
		Labels:      Labels(instance),
		Annotations: annotations,
	}
}

func newDescriptor(kind string, obj client.Object, warnings []string) *Descriptor {
	return &Descriptor{
		Kind:      kind,
		Name:      obj.GetName(),
		Namespace: obj.GetNamespace(),
		Object:    obj,
		Warnings:  warnings,
	}
}
