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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

type servicePortInput struct {
	Name       string              `json:"name,omitempty"`
	Port       int32               `json:"port"`
	TargetPort *intstr.IntOrString `json:"targetPort,omitempty"`
	Protocol   corev1.Protocol     `json:"protocol,omitempty"`
	NodePort   int32               `json:"nodePort,omitempty"`
}

type serviceInput struct {
	Type        corev1.ServiceType `json:"type,omitempty"`
	Ports       []servicePortInput `json:"ports,omitempty"`
	Selector    map[string]string  `json:"selector,omitempty"`
	Annotations map[string]string  `json:"annotations,omitempty"`
	ClusterIP   string             `json:"clusterIP,omitempty"`
}

func decodeService(kind string, spec map[string]interface{}) (serviceInput, error) {
	var in serviceInput
	err := decodeSubtree(kind, spec, "service", &in)
	return in, err
}

func servicePorts(kind string, in []servicePortInput) ([]corev1.ServicePort, error) {
	if len(in) == 0 {
		in = []servicePortInput{{Port: DefaultServicePort}}
	}

	ports := make([]corev1.ServicePort, 0, len(in))
	for i, p := range in {
		if p.Port <= 0 || p.Port > 65535 {
			return nil, fieldError(kind, fmt.Sprintf("service.ports[%d].port", i), "must be between 1 and 65535, got %d", p.Port)
		}
		target := intstr.FromInt32(p.Port)
		if p.TargetPort != nil {
			target = *p.TargetPort
		}
		name := p.Name
		if name == "" && len(in) > 1 {
			name = fmt.Sprintf("port-%d", p.Port)
		}
		ports = append(ports, corev1.ServicePort{
			Name:       name,
			Port:       p.Port,
			TargetPort: target,
			Protocol:   p.Protocol,
			NodePort:   p.NodePort,
		})
	}
	return ports, nil
}

// Service builds the network endpoint in front of the workload.
func Service(_ context.Context, in Input) (*Descriptor, error) {
	const kind = "Service"
	spec := normalizeSpec(in.Spec)

	svc, err := decodeService(kind, spec)
	if err != nil {
		return nil, err
	}
	ports, err := servicePorts(kind, svc.Ports)
	if err != nil {
		return nil, err
	}

	serviceType := svc.Type
	if serviceType == "" {
		serviceType = corev1.ServiceTypeClusterIP
	}
	selector := svc.Selector
	if len(selector) == 0 {
		selector = SelectorLabels(in.Name)
	}

	service := &corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: kind},
		ObjectMeta: objectMeta(ServiceName(in.Name), in.Namespace, in.Name, svc.Annotations),
		Spec: corev1.ServiceSpec{
			Type:      serviceType,
			Selector:  selector,
			Ports:     ports,
			ClusterIP: svc.ClusterIP,
		},
	}
	return newDescriptor(kind, service, nil), nil
}
