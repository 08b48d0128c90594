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

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

type containerInput struct {
	Name            string                      `json:"name,omitempty"`
	Image           string                      `json:"image,omitempty"`
	ImagePullPolicy corev1.PullPolicy           `json:"imagePullPolicy,omitempty"`
	Command         []string                    `json:"command,omitempty"`
	Args            []string                    `json:"args,omitempty"`
	WorkingDir      string                      `json:"workingDir,omitempty"`
	Ports           []corev1.ContainerPort      `json:"ports,omitempty"`
	Env             []envInput                  `json:"env,omitempty"`
	EnvFrom         []corev1.EnvFromSource      `json:"envFrom,omitempty"`
	VolumeMounts    []corev1.VolumeMount        `json:"volumeMounts,omitempty"`
	Resources       corev1.ResourceRequirements `json:"resources,omitempty"`
	LivenessProbe   *probeInput                 `json:"livenessProbe,omitempty"`
	ReadinessProbe  *probeInput                 `json:"readinessProbe,omitempty"`
	StartupProbe    *probeInput                 `json:"startupProbe,omitempty"`
	// Volumes declared next to the container are merged with the pod volumes.
	Volumes []corev1.Volume `json:"volumes,omitempty"`
}

// envInput is an environment variable with either a literal value or a
// reference to a secret key.
type envInput struct {
	Name         string                    `json:"name"`
	Value        *string                   `json:"value,omitempty"`
	SecretKeyRef *corev1.SecretKeySelector `json:"secretKeyRef,omitempty"`
	ValueFrom    *corev1.EnvVarSource      `json:"valueFrom,omitempty"`
}

type probeInput struct {
	Exec                          *corev1.ExecAction      `json:"exec,omitempty"`
	HTTPGet                       *corev1.HTTPGetAction   `json:"httpGet,omitempty"`
	TCPSocket                     *corev1.TCPSocketAction `json:"tcpSocket,omitempty"`
	InitialDelaySeconds           int32                   `json:"initialDelaySeconds,omitempty"`
	TimeoutSeconds                int32                   `json:"timeoutSeconds,omitempty"`
	PeriodSeconds                 int32                   `json:"periodSeconds,omitempty"`
	SuccessThreshold              int32                   `json:"successThreshold,omitempty"`
	FailureThreshold              int32                   `json:"failureThreshold,omitempty"`
	TerminationGracePeriodSeconds *int64                  `json:"terminationGracePeriodSeconds,omitempty"`
}

// podInput is the pod-level part shared by every kind that runs a container.
type podInput struct {
	Container          *containerInput      `json:"container,omitempty"`
	Volumes            []corev1.Volume      `json:"volumes,omitempty"`
	Affinity           *corev1.Affinity     `json:"affinity,omitempty"`
	NodeSelector       map[string]string    `json:"nodeSelector,omitempty"`
	Tolerations        []corev1.Toleration  `json:"tolerations,omitempty"`
	ServiceAccountName string               `json:"serviceAccountName,omitempty"`
	RestartPolicy      corev1.RestartPolicy `json:"restartPolicy,omitempty"`
}

// workloadKeys are the top-level spec keys that describe the primary pod.
var workloadKeys = []string{"container", "volumes", "affinity", "nodeSelector", "tolerations", "serviceAccountName"}

// decodeWorkloadPod decodes the top-level pod fields one key at a time so
// errors name the offending key.
func decodeWorkloadPod(kind string, spec map[string]interface{}) (podInput, error) {
	var in podInput
	targets := map[string]interface{}{
		"container":          &in.Container,
		"volumes":            &in.Volumes,
		"affinity":           &in.Affinity,
		"nodeSelector":       &in.NodeSelector,
		"tolerations":        &in.Tolerations,
		"serviceAccountName": &in.ServiceAccountName,
	}
	for _, key := range workloadKeys {
		if err := decodeKey(kind, spec, key, targets[key]); err != nil {
			return podInput{}, err
		}
	}
	return in, nil
}

// buildPodSpec turns a pod input into a PodSpec. extraVolumes names volumes
// provided outside the pod spec, such as StatefulSet claim templates.
func buildPodSpec(ctx context.Context, kind string, in podInput, instance string, extraVolumes ...string) (corev1.PodSpec, []string, error) {
	var c containerInput
	if in.Container != nil {
		c = *in.Container
	}

	container, err := buildContainer(kind, c, instance)
	if err != nil {
		return corev1.PodSpec{}, nil, err
	}

	volumes := append(append([]corev1.Volume{}, in.Volumes...), c.Volumes...)
	volumes, warnings := completeVolumes(ctx, kind, volumes, container.VolumeMounts, extraVolumes)

	return corev1.PodSpec{
		Containers:         []corev1.Container{container},
		Volumes:            volumes,
		Affinity:           in.Affinity,
		NodeSelector:       in.NodeSelector,
		Tolerations:        in.Tolerations,
		ServiceAccountName: in.ServiceAccountName,
		RestartPolicy:      in.RestartPolicy,
	}, warnings, nil
}

func buildContainer(kind string, in containerInput, instance string) (corev1.Container, error) {
	name := in.Name
	if name == "" {
		name = instance
	}
	image := in.Image
	if image == "" {
		image = DefaultImage
	}

	env, err := buildEnv(kind, in.Env)
	if err != nil {
		return corev1.Container{}, err
	}

	container := corev1.Container{
		Name:            name,
		Image:           image,
		ImagePullPolicy: in.ImagePullPolicy,
		Command:         in.Command,
		Args:            in.Args,
		WorkingDir:      in.WorkingDir,
		Ports:           in.Ports,
		Env:             env,
		EnvFrom:         in.EnvFrom,
		VolumeMounts:    in.VolumeMounts,
		Resources:       in.Resources,
	}

	probes := []struct {
		field string
		in    *probeInput
		out   **corev1.Probe
	}{
		{"container.livenessProbe", in.LivenessProbe, &container.LivenessProbe},
		{"container.readinessProbe", in.ReadinessProbe, &container.ReadinessProbe},
		{"container.startupProbe", in.StartupProbe, &container.StartupProbe},
	}
	for _, p := range probes {
		if p.in == nil {
			continue
		}
		probe, err := p.in.build(kind, p.field)
		if err != nil {
			return corev1.Container{}, err
		}
		*p.out = probe
	}

	return container, nil
}

func buildEnv(kind string, in []envInput) ([]corev1.EnvVar, error) {
	if len(in) == 0 {
		return nil, nil
	}

	env := make([]corev1.EnvVar, 0, len(in))
	for i, e := range in {
		field := fmt.Sprintf("container.env[%d]", i)
		if e.Name == "" {
			return nil, fieldError(kind, field, "name is required")
		}

		forms := 0
		for _, set := range []bool{e.Value != nil, e.SecretKeyRef != nil, e.ValueFrom != nil} {
			if set {
				forms++
			}
		}
		if forms > 1 {
			return nil, fieldError(kind, field, "%s: set only one of value, secretKeyRef, valueFrom", e.Name)
		}

		v := corev1.EnvVar{Name: e.Name}
		switch {
		case e.Value != nil:
			v.Value = *e.Value
		case e.SecretKeyRef != nil:
			if e.SecretKeyRef.Name == "" || e.SecretKeyRef.Key == "" {
				return nil, fieldError(kind, field+".secretKeyRef", "%s: name and key are required", e.Name)
			}
			v.ValueFrom = &corev1.EnvVarSource{SecretKeyRef: e.SecretKeyRef}
		case e.ValueFrom != nil:
			v.ValueFrom = e.ValueFrom
		}
		env = append(env, v)
	}
	return env, nil
}

func (p *probeInput) build(kind, field string) (*corev1.Probe, error) {
	var mechanisms []string
	if p.Exec != nil {
		mechanisms = append(mechanisms, "exec")
	}
	if p.HTTPGet != nil {
		mechanisms = append(mechanisms, "httpGet")
	}
	if p.TCPSocket != nil {
		mechanisms = append(mechanisms, "tcpSocket")
	}
	if len(mechanisms) != 1 {
		return nil, &ValidationError{
			Kind:   kind,
			Field:  field,
			Reason: fmt.Sprintf("probe must set exactly one of exec, httpGet, tcpSocket, got %v", mechanisms),
		}
	}

	return &corev1.Probe{
		ProbeHandler: corev1.ProbeHandler{
			Exec:      p.Exec,
			HTTPGet:   p.HTTPGet,
			TCPSocket: p.TCPSocket,
		},
		InitialDelaySeconds:           p.InitialDelaySeconds,
		TimeoutSeconds:                p.TimeoutSeconds,
		PeriodSeconds:                 p.PeriodSeconds,
		SuccessThreshold:              p.SuccessThreshold,
		FailureThreshold:              p.FailureThreshold,
		TerminationGracePeriodSeconds: p.TerminationGracePeriodSeconds,
	}, nil
}

// completeVolumes adds an emptyDir volume for every mount without a
// declared volume. Duplicate declarations keep the first entry.
func completeVolumes(ctx context.Context, kind string, volumes []corev1.Volume, mounts []corev1.VolumeMount, external []string) ([]corev1.Volume, []string) {
	declared := make(map[string]bool, len(volumes)+len(external))
	out := make([]corev1.Volume, 0, len(volumes))
	for _, v := range volumes {
		if declared[v.Name] {
			continue
		}
		declared[v.Name] = true
		out = append(out, v)
	}
	for _, name := range external {
		declared[name] = true
	}

	var warnings []string
	for _, m := range mounts {
		if declared[m.Name] {
			continue
		}
		declared[m.Name] = true
		out = append(out, corev1.Volume{
			Name:         m.Name,
			VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}},
		})
		msg := fmt.Sprintf("volume mount %q has no matching volume, added emptyDir volume", m.Name)
		warnings = append(warnings, msg)
		log.FromContext(ctx).Info("warning: "+msg, "kind", kind, "volume", m.Name)
	}

	if len(out) == 0 {
		return nil, warnings
	}
	return out, warnings
}
