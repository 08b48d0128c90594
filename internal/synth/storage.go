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

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type pvcInput struct {
	// Storage is shorthand for resources.requests.storage.
	Storage          *resource.Quantity                  `json:"storage,omitempty"`
	AccessModes      []corev1.PersistentVolumeAccessMode `json:"accessModes,omitempty"`
	StorageClassName *string                             `json:"storageClassName,omitempty"`
	VolumeMode       *corev1.PersistentVolumeMode        `json:"volumeMode,omitempty"`
	VolumeName       string                              `json:"volumeName,omitempty"`
	Selector         *metav1.LabelSelector               `json:"selector,omitempty"`
	Resources        corev1.VolumeResourceRequirements   `json:"resources,omitempty"`
}

// PersistentVolumeClaim builds the claim requested by the "pvc" key. A
// storage size is required.
func PersistentVolumeClaim(_ context.Context, in Input) (*Descriptor, error) {
	const kind = "PersistentVolumeClaim"
	spec := normalizeSpec(in.Spec)

	var claim pvcInput
	if err := decodeSubtree(kind, spec, "pvc", &claim); err != nil {
		return nil, err
	}

	resources := claim.Resources
	if claim.Storage != nil {
		if resources.Requests == nil {
			resources.Requests = corev1.ResourceList{}
		}
		resources.Requests[corev1.ResourceStorage] = *claim.Storage
	}
	if _, ok := resources.Requests[corev1.ResourceStorage]; !ok {
		return nil, fieldError(kind, "pvc.storage", "a storage size is required")
	}

	accessModes := claim.AccessModes
	if len(accessModes) == 0 {
		accessModes = []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce}
	}

	pvc := &corev1.PersistentVolumeClaim{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: kind},
		ObjectMeta: objectMeta(PVCName(in.Name), in.Namespace, in.Name, nil),
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes:      accessModes,
			StorageClassName: claim.StorageClassName,
			VolumeMode:       claim.VolumeMode,
			VolumeName:       claim.VolumeName,
			Selector:         claim.Selector,
			Resources:        resources,
		},
	}
	return newDescriptor(kind, pvc, nil), nil
}
