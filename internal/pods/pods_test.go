package pods

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func webPod(name, ip string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "dev-datawave",
			Labels:    map[string]string{"application": "datawave-monolith"},
		},
		Status: corev1.PodStatus{PodIP: ip},
	}
}

func TestLookupFindsFirstMatch(t *testing.T) {
	client := fake.NewSimpleClientset(
		webPod("datawave-monolith-0", "10.1.2.3"),
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "unrelated",
				Namespace: "dev-datawave",
				Labels:    map[string]string{"application": "dictionary"},
			},
		},
	)

	pod, err := Lookup(context.Background(), client, nil, Web, "dev-datawave", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "datawave-monolith-0", pod.Name)
	assert.Equal(t, "10.1.2.3", pod.IP)
	assert.Equal(t, "dev-datawave", pod.Namespace)
}

func TestLookupNoMatch(t *testing.T) {
	client := fake.NewSimpleClientset()

	_, err := Lookup(context.Background(), client, nil, YarnResourceManager, "dev-datawave", zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "component=yarn-rm")
	assert.Contains(t, err.Error(), "dev-datawave")
}

func TestLookupWrongNamespace(t *testing.T) {
	client := fake.NewSimpleClientset(webPod("datawave-monolith-0", "10.1.2.3"))

	_, err := Lookup(context.Background(), client, nil, Web, "other-ns", zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestLookupCarriesLogDir(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "ingest-0",
			Namespace: "dev-datawave",
			Labels:    map[string]string{"app.kubernetes.io/component": "ingest"},
		},
	})

	pod, err := Lookup(context.Background(), client, nil, Ingest, "dev-datawave", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "/srv/logs/ingest", pod.LogDir)
}

func TestLogFilesRequiresLogDir(t *testing.T) {
	pod := &Pod{Name: "yarn-rm-0"}
	_, err := pod.LogFiles(context.Background())
	assert.Error(t, err)
}
