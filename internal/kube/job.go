package kube

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/tonyjoanes/gopher-doctor/internal/failure"
)

// JobFailedName is the failure name used when the Job has no failed
// condition reason.
const JobFailedName = "JobFailed"

// LogTailLines is the number of log lines fetched per failed container.
const LogTailLines int64 = 200

// JobCollector turns a failed Kubernetes build Job into a failure.Failure.
// It is safe to call concurrently.
type JobCollector struct {
	// Ctrl is used for the Job, its Pods and Events.
	Ctrl client.Client
	// Kube is the raw clientset required for pod log streaming.
	Kube kubernetes.Interface
}

// NewJobCollector returns a collector backed by c.
func NewJobCollector(c *Clients) *JobCollector {
	return &JobCollector{Ctrl: c.Ctrl, Kube: c.Kube}
}

// Collect returns the failure of Job namespace/name, or nil when the Job has
// not failed. Non-fatal errors (log fetch failure, events unavailable) are
// logged and skipped so the LLM still receives partial context rather than
// nothing.
func (c *JobCollector) Collect(ctx context.Context, namespace, name string) (*failure.Failure, error) {
	logger := log.FromContext(ctx).WithValues("job", namespace+"/"+name)

	var job batchv1.Job
	if err := c.Ctrl.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, &job); err != nil {
		return nil, fmt.Errorf("get job %s/%s: %w", namespace, name, err)
	}

	cond := failedCondition(&job)
	if cond == nil && job.Status.Failed == 0 {
		logger.Info("✅ Job has not failed; nothing to diagnose",
			"active", job.Status.Active, "succeeded", job.Status.Succeeded)
		return nil, nil
	}

	selector := map[string]string{"job-name": name}
	if job.Spec.Selector != nil && len(job.Spec.Selector.MatchLabels) > 0 {
		selector = job.Spec.Selector.MatchLabels
	}
	var podList corev1.PodList
	if err := c.Ctrl.List(ctx, &podList,
		client.InNamespace(namespace),
		client.MatchingLabels(selector),
	); err != nil {
		return nil, fmt.Errorf("listing pods: %w", err)
	}

	involvedNames := map[string]bool{name: true}
	var (
		headline string
		stack    strings.Builder
	)
	for i := range podList.Items {
		pod := &podList.Items[i]
		involvedNames[pod.Name] = true

		for _, cs := range pod.Status.ContainerStatuses {
			// A container restarted by restartPolicy OnFailure keeps its
			// failed run in LastTerminationState.
			t, previous := cs.State.Terminated, false
			if t == nil {
				t, previous = cs.LastTerminationState.Terminated, true
			}
			if t == nil || t.ExitCode == 0 {
				continue
			}
			if headline == "" {
				headline = fmt.Sprintf("container %q in pod %s exited with code %d (%s)", cs.Name, pod.Name, t.ExitCode, t.Reason)
			}

			logs, err := c.failedRunLogs(ctx, namespace, pod.Name, cs.Name, previous)
			if err != nil {
				logger.V(1).Info("could not fetch container logs",
					"pod", pod.Name, "container", cs.Name, "previous", previous, "err", err)
				logs = fmt.Sprintf("[log unavailable: %v]", err)
			}
			origin := containerImage(pod, cs.Name)
			if previous {
				origin += ", previous run"
			}
			fmt.Fprintf(&stack, "--- %s/%s (%s) ---\n%s\n", pod.Name, cs.Name, origin, strings.TrimRight(logs, "\n"))
		}
	}

	events, err := FetchWarningEvents(ctx, c.Ctrl, namespace, involvedNames)
	if err != nil {
		logger.V(1).Info("could not fetch kube events", "err", err)
	} else if len(events) > 0 {
		stack.WriteString("--- Warning events ---\n")
		for _, ev := range events {
			fmt.Fprintf(&stack, "%s %s: %s (x%d)\n", ev.InvolvedObject, ev.Reason, ev.Message, ev.Count)
		}
	}

	f := &failure.Failure{
		Message: jobMessage(&job, cond, headline),
		Stack:   stack.String(),
		ID:      "job/" + namespace + "/" + name,
		Name:    JobFailedName,
	}
	if cond != nil && cond.Reason != "" {
		f.Name = cond.Reason
	}

	logger.Info("📦 Job failure collected",
		"pods", len(podList.Items),
		"events", len(events),
		"reason", f.Name,
	)
	return f, nil
}

func failedCondition(job *batchv1.Job) *batchv1.JobCondition {
	for i := range job.Status.Conditions {
		c := &job.Status.Conditions[i]
		if c.Type == batchv1.JobFailed && c.Status == corev1.ConditionTrue {
			return c
		}
	}
	return nil
}

func jobMessage(job *batchv1.Job, cond *batchv1.JobCondition, headline string) string {
	msg := fmt.Sprintf("Job %s/%s failed", job.Namespace, job.Name)
	if cond != nil && cond.Message != "" {
		msg += ": " + cond.Message
	}
	if headline != "" {
		msg += "\n" + headline
	}
	return msg
}

// containerImage looks up the image name from the pod spec containers.
func containerImage(pod *corev1.Pod, containerName string) string {
	for _, c := range pod.Spec.Containers {
		if c.Name == containerName {
			return c.Image
		}
	}
	return "unknown"
}

// failedRunLogs returns the tail of the logs written by the failed run of a
// container: the current instance, or the previous one when previous is set.
func (c *JobCollector) failedRunLogs(ctx context.Context, namespace, pod, container string, previous bool) (string, error) {
	tail := LogTailLines
	stream, err := c.Kube.CoreV1().Pods(namespace).GetLogs(pod, &corev1.PodLogOptions{
		Container: container,
		TailLines: &tail,
		Previous:  previous,
	}).Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("streaming logs of %s/%s[%s]: %w", namespace, pod, container, err)
	}
	defer stream.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, stream); err != nil {
		return "", fmt.Errorf("reading logs of %s/%s[%s]: %w", namespace, pod, container, err)
	}
	return buf.String(), nil
}
