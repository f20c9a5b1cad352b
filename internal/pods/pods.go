// Package pods locates DataWave deployment pods by label selector and
// runs commands inside them. Used for IP addressing (--ip) and for the
// ingest interactions that go through the yarn and HDFS pods.
package pods

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/remotecommand"
)

// Info identifies a deployment pod of interest by label selector, plus
// where that pod keeps its application logs.
type Info struct {
	LabelSelector string
	LogDir        string
}

// Pods this tool has specific interactions with.
var (
	Ingest              = Info{LabelSelector: "app.kubernetes.io/component=ingest", LogDir: "/srv/logs/ingest"}
	YarnResourceManager = Info{LabelSelector: "component=yarn-rm"}
	HDFSNameNode        = Info{LabelSelector: "component=hdfs-nn"}
	Web                 = Info{LabelSelector: "application=datawave-monolith"}
	Dictionary          = Info{LabelSelector: "application=dictionary"}
	Authorization       = Info{LabelSelector: "application=authorization"}
)

// Pod is one located pod with the handles needed to exec into it.
type Pod struct {
	Name      string
	IP        string
	Namespace string
	LogDir    string

	client     kubernetes.Interface
	restConfig *rest.Config
	logger     *zap.Logger
}

// NewClientset builds a clientset and rest config from the usual
// kubeconfig resolution (explicit path, KUBECONFIG, then ~/.kube/config).
func NewClientset(kubeconfig string) (kubernetes.Interface, *rest.Config, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading kubeconfig: %w", err)
	}
	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cs, cfg, nil
}

// Lookup finds the first pod matching info's selector in the namespace.
func Lookup(ctx context.Context, client kubernetes.Interface, restConfig *rest.Config, info Info, namespace string, logger *zap.Logger) (*Pod, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	list, err := client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: info.LabelSelector,
	})
	if err != nil {
		return nil, fmt.Errorf("listing pods: %w", err)
	}
	if len(list.Items) == 0 {
		return nil, fmt.Errorf("no pod found with labels %q in namespace %q", info.LabelSelector, namespace)
	}

	found := list.Items[0]
	logger.Debug("pod located",
		zap.String("pod", found.Name),
		zap.String("ip", found.Status.PodIP),
		zap.String("selector", info.LabelSelector))

	return &Pod{
		Name:       found.Name,
		IP:         found.Status.PodIP,
		Namespace:  namespace,
		LogDir:     info.LogDir,
		client:     client,
		restConfig: restConfig,
		logger:     logger.Named("pods"),
	}, nil
}

// Exec runs a shell command inside the pod and returns its combined
// stdout and stderr.
func (p *Pod) Exec(ctx context.Context, command string) (string, error) {
	req := p.client.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(p.Name).
		Namespace(p.Namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Command: []string{"/bin/sh", "-c", command},
			Stdout:  true,
			Stderr:  true,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(p.restConfig, "POST", req.URL())
	if err != nil {
		return "", fmt.Errorf("creating executor: %w", err)
	}

	var stdout, stderr bytes.Buffer
	p.logger.Debug("exec", zap.String("pod", p.Name), zap.String("command", command))
	err = exec.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		return "", fmt.Errorf("exec %q in pod %s: %w (stderr: %s)", command, p.Name, err, stderr.String())
	}
	return stdout.String() + stderr.String(), nil
}

// LogFiles lists the files under the pod's log directory.
func (p *Pod) LogFiles(ctx context.Context) ([]string, error) {
	if p.LogDir == "" {
		return nil, fmt.Errorf("pod %s has no log directory configured", p.Name)
	}
	out, err := p.Exec(ctx, "ls "+p.LogDir)
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}
