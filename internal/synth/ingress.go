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

	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

type ingressPathInput struct {
	Path        string                 `json:"path,omitempty"`
	PathType    *networkingv1.PathType `json:"pathType,omitempty"`
	ServiceName string                 `json:"serviceName,omitempty"`
	ServicePort int32                  `json:"servicePort,omitempty"`
}

type ingressTLSInput struct {
	SecretName string   `json:"secretName"`
	Hosts      []string `json:"hosts,omitempty"`
}

type ingressInput struct {
	Host             string             `json:"host,omitempty"`
	Paths            []ingressPathInput `json:"paths,omitempty"`
	IngressClassName *string            `json:"ingressClassName,omitempty"`
	Annotations      map[string]string  `json:"annotations,omitempty"`
	TLS              []ingressTLSInput  `json:"tls,omitempty"`
}

// Ingress builds the Ingress requested by the "ingress" key. Paths default
// to "/" and route to the application's Service.
func Ingress(_ context.Context, in Input) (*Descriptor, error) {
	const kind = "Ingress"
	spec := normalizeSpec(in.Spec)

	var ing ingressInput
	if err := decodeSubtree(kind, spec, "ingress", &ing); err != nil {
		return nil, err
	}

	host := ing.Host
	if host == "" {
		host = in.Name + ".local"
	}

	backendPort := DefaultServicePort
	if svc, err := decodeService(kind, spec); err == nil && len(svc.Ports) > 0 && svc.Ports[0].Port > 0 {
		backendPort = svc.Ports[0].Port
	}

	paths := ing.Paths
	if len(paths) == 0 {
		paths = []ingressPathInput{{Path: "/"}}
	}

	httpPaths := make([]networkingv1.HTTPIngressPath, 0, len(paths))
	for i, p := range paths {
		path := p.Path
		if path == "" {
			path = "/"
		}
		if path[0] != '/' {
			return nil, fieldError(kind, fmt.Sprintf("ingress.paths[%d].path", i), "must start with /, got %q", path)
		}
		pathType := p.PathType
		if pathType == nil {
			pathType = ptr.To(networkingv1.PathTypePrefix)
		}
		serviceName := p.ServiceName
		if serviceName == "" {
			serviceName = ServiceName(in.Name)
		}
		port := p.ServicePort
		if port == 0 {
			port = backendPort
		}

		httpPaths = append(httpPaths, networkingv1.HTTPIngressPath{
			Path:     path,
			PathType: pathType,
			Backend: networkingv1.IngressBackend{
				Service: &networkingv1.IngressServiceBackend{
					Name: serviceName,
					Port: networkingv1.ServiceBackendPort{Number: port},
				},
			},
		})
	}

	var tls []networkingv1.IngressTLS
	for i, t := range ing.TLS {
		if t.SecretName == "" {
			return nil, fieldError(kind, fmt.Sprintf("ingress.tls[%d].secretName", i), "is required")
		}
		hosts := t.Hosts
		if len(hosts) == 0 {
			hosts = []string{host}
		}
		tls = append(tls, networkingv1.IngressTLS{Hosts: hosts, SecretName: t.SecretName})
	}

	ingress := &networkingv1.Ingress{
		TypeMeta:   metav1.TypeMeta{APIVersion: "networking.k8s.io/v1", Kind: kind},
		ObjectMeta: objectMeta(IngressName(in.Name), in.Namespace, in.Name, ing.Annotations),
		Spec: networkingv1.IngressSpec{
			IngressClassName: ing.IngressClassName,
			TLS:              tls,
			Rules: []networkingv1.IngressRule{{
				Host: host,
				IngressRuleValue: networkingv1.IngressRuleValue{
					HTTP: &networkingv1.HTTPIngressRuleValue{Paths: httpPaths},
				},
			}},
		},
	}
	return newDescriptor(kind, ingress, nil), nil
}
