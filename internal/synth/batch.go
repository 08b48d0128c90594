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

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type jobInput struct {
	podInput `json:",inline"`

	BackoffLimit            *int32 `json:"backoffLimit,omitempty"`
	Completions             *int32 `json:"completions,omitempty"`
	Parallelism             *int32 `json:"parallelism,omitempty"`
	ActiveDeadlineSeconds   *int64 `json:"activeDeadlineSeconds,omitempty"`
	TTLSecondsAfterFinished *int32 `json:"ttlSecondsAfterFinished,omitempty"`
}

type cronJobInput struct {
	jobInput `json:",inline"`

	Schedule                   string                    `json:"schedule,omitempty"`
	TimeZone                   *string                   `json:"timeZone,omitempty"`
	ConcurrencyPolicy          batchv1.ConcurrencyPolicy `json:"concurrencyPolicy,omitempty"`
	Suspend                    *bool                     `json:"suspend,omitempty"`
	SuccessfulJobsHistoryLimit *int32                    `json:"successfulJobsHistoryLimit,omitempty"`
	FailedJobsHistoryLimit     *int32                    `json:"failedJobsHistoryLimit,omitempty"`
}

// inheritContainer falls back to the top-level container when a batch kind
// declares none of its own.
func inheritContainer(kind string, spec map[string]interface{}, pod *podInput) error {
	if pod.Container != nil {
		return nil
	}
	return decodeKey(kind, spec, "container", &pod.Container)
}

func batchPodSpec(ctx context.Context, kind string, spec map[string]interface{}, pod podInput, instance string) (corev1.PodSpec, []string, error) {
	if err := inheritContainer(kind, spec, &pod); err != nil {
		return corev1.PodSpec{}, nil, err
	}
	switch pod.RestartPolicy {
	case "":
		pod.RestartPolicy = corev1.RestartPolicyOnFailure
	case corev1.RestartPolicyAlways:
		return corev1.PodSpec{}, nil, &ValidationError{Kind: kind, Field: "restartPolicy", Reason: "must be OnFailure or Never"}
	}
	return buildPodSpec(ctx, kind, pod, instance)
}

// Pod builds the standalone Pod requested by the "pod" key.
func Pod(ctx context.Context, in Input) (*Descriptor, error) {
	const kind = "Pod"
	spec := normalizeSpec(in.Spec)

	var pod podInput
	if err := decodeSubtree(kind, spec, "pod", &pod); err != nil {
		return nil, err
	}
	if err := inheritContainer(kind, spec, &pod); err != nil {
		return nil, err
	}
	if pod.RestartPolicy == "" {
		pod.RestartPolicy = corev1.RestartPolicyAlways
	}

	podSpec, warnings, err := buildPodSpec(ctx, kind, pod, in.Name)
	if err != nil {
		return nil, err
	}

	obj := &corev1.Pod{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: kind},
		ObjectMeta: objectMeta(PodName(in.Name), in.Namespace, in.Name, nil),
		Spec:       podSpec,
	}
	return newDescriptor(kind, obj, warnings), nil
}

func jobSpec(job jobInput, instance string, podSpec corev1.PodSpec) batchv1.JobSpec {
	return batchv1.JobSpec{
		BackoffLimit:            job.BackoffLimit,
		Completions:             job.Completions,
		Parallelism:             job.Parallelism,
		ActiveDeadlineSeconds:   job.ActiveDeadlineSeconds,
		TTLSecondsAfterFinished: job.TTLSecondsAfterFinished,
		Template:                podTemplate(instance, podSpec),
	}
}

// Job builds the Job requested by the "job" key.
func Job(ctx context.Context, in Input) (*Descriptor, error) {
	const kind = "Job"
	spec := normalizeSpec(in.Spec)

	var job jobInput
	if err := decodeSubtree(kind, spec, "job", &job); err != nil {
		return nil, err
	}
	podSpec, warnings, err := batchPodSpec(ctx, kind, spec, job.podInput, in.Name)
	if err != nil {
		return nil, err
	}

	obj := &batchv1.Job{
		TypeMeta:   metav1.TypeMeta{APIVersion: "batch/v1", Kind: kind},
		ObjectMeta: objectMeta(JobName(in.Name), in.Namespace, in.Name, nil),
		Spec:       jobSpec(job, in.Name, podSpec),
	}
	return newDescriptor(kind, obj, warnings), nil
}

// CronJob builds the CronJob requested by the "cronjob" key. A schedule is
// required.
func CronJob(ctx context.Context, in Input) (*Descriptor, error) {
	const kind = "CronJob"
	spec := normalizeSpec(in.Spec)

	var cron cronJobInput
	if err := decodeSubtree(kind, spec, "cronjob", &cron); err != nil {
		return nil, err
	}
	if cron.Schedule == "" {
		return nil, fieldError(kind, "cronjob.schedule", "is required")
	}
	podSpec, warnings, err := batchPodSpec(ctx, kind, spec, cron.podInput, in.Name)
	if err != nil {
		return nil, err
	}

	obj := &batchv1.CronJob{
		TypeMeta:   metav1.TypeMeta{APIVersion: "batch/v1", Kind: kind},
		ObjectMeta: objectMeta(CronJobName(in.Name), in.Namespace, in.Name, nil),
		Spec: batchv1.CronJobSpec{
			Schedule:                   cron.Schedule,
			TimeZone:                   cron.TimeZone,
			ConcurrencyPolicy:          cron.ConcurrencyPolicy,
			Suspend:                    cron.Suspend,
			SuccessfulJobsHistoryLimit: cron.SuccessfulJobsHistoryLimit,
			FailedJobsHistoryLimit:     cron.FailedJobsHistoryLimit,
			JobTemplate: batchv1.JobTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: Labels(in.Name)},
				Spec:       jobSpec(cron.jobInput, in.Name, podSpec),
			},
		},
	}
	return newDescriptor(kind, obj, warnings), nil
}
