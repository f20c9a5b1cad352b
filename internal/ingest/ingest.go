// Package ingest inspects and feeds the DataWave ingest pipeline: it
// lists Hadoop Yarn application states, places data files into HDFS via
// the namenode pod, and waits for the resulting ingest job to finish.
package ingest

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/dwvctl/dwv/internal/pods"
)

const (
	yarnListCommand = "yarn application -list -appStates ALL"
	hdfsDataRoot    = "hdfs://hdfs-nn:9000/data"

	// How often and how long to poll Yarn after placing a file.
	completionPollInterval = 5 * time.Second
	completionPollTimeout  = 3 * time.Minute
)

// Service runs the ingest interactions against one namespace.
type Service struct {
	client     kubernetes.Interface
	restConfig *rest.Config
	namespace  string
	logger     *zap.Logger
}

func New(client kubernetes.Interface, restConfig *rest.Config, namespace string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:     client,
		restConfig: restConfig,
		namespace:  namespace,
		logger:     logger.Named("ingest"),
	}
}

// ApplicationStates returns the state of every Yarn application the
// resource manager knows about.
func (s *Service) ApplicationStates(ctx context.Context) ([]string, error) {
	pod, err := pods.Lookup(ctx, s.client, s.restConfig, pods.YarnResourceManager, s.namespace, s.logger)
	if err != nil {
		return nil, err
	}
	out, err := pod.Exec(ctx, yarnListCommand)
	if err != nil {
		return nil, err
	}
	return ParseApplicationStates(out)
}

// ParseApplicationStates extracts the State column from `yarn
// application -list` output. The listing is a short preamble, a
// tab-separated header row, then one row per application.
func ParseApplicationStates(out string) ([]string, error) {
	lines := strings.Split(out, "\n")

	stateCol := -1
	var states []string
	for _, line := range lines {
		// Yarn pads cells with spaces around the tabs.
		line = strings.ReplaceAll(line, " ", "")
		if line == "" {
			continue
		}
		cells := strings.Split(line, "\t")

		if stateCol < 0 {
			for i, cell := range cells {
				if cell == "State" {
					stateCol = i
					break
				}
			}
			continue
		}
		if stateCol < len(cells) {
			states = append(states, cells[stateCol])
		}
	}

	if stateCol < 0 {
		return nil, fmt.Errorf("no application table header in yarn output")
	}
	return states, nil
}

// FileExists reports whether filename is already present in the
// namenode pod's /tmp staging area.
func (s *Service) FileExists(ctx context.Context, filename string) (bool, error) {
	pod, err := pods.Lookup(ctx, s.client, s.restConfig, pods.HDFSNameNode, s.namespace, s.logger)
	if err != nil {
		return false, err
	}
	out, err := pod.Exec(ctx, "ls tmp")
	if err != nil {
		return false, err
	}
	return strings.Contains(out, filename), nil
}

// ErrAlreadyStaged is returned by PlaceFile when the data file is
// already present in the namenode pod, meaning the data was most
// likely ingested on an earlier run.
var ErrAlreadyStaged = fmt.Errorf("data file already staged in the namenode pod")

// PlaceFile copies srcFile into the namenode pod and from there into
// HDFS under the data type's directory, where the ingest pipeline picks
// it up.
func (s *Service) PlaceFile(ctx context.Context, srcFile, dataType string) error {
	if _, err := exec.LookPath("kubectl"); err != nil {
		return fmt.Errorf("kubectl is required for file placement: %w", err)
	}

	filename := filepath.Base(srcFile)
	staged, err := s.FileExists(ctx, filename)
	if err != nil {
		return err
	}
	if staged {
		return ErrAlreadyStaged
	}

	pod, err := pods.Lookup(ctx, s.client, s.restConfig, pods.HDFSNameNode, s.namespace, s.logger)
	if err != nil {
		return err
	}

	s.logger.Info("copying file to namenode pod",
		zap.String("file", srcFile),
		zap.String("pod", pod.Name))
	cp := exec.CommandContext(ctx, "kubectl", "cp", "-n", s.namespace,
		srcFile, fmt.Sprintf("%s:/tmp/%s", pod.Name, filename))
	if out, err := cp.CombinedOutput(); err != nil {
		return fmt.Errorf("kubectl cp: %w (%s)", err, strings.TrimSpace(string(out)))
	}

	staged, err = s.FileExists(ctx, filename)
	if err != nil {
		return err
	}
	if !staged {
		return fmt.Errorf("file %s did not arrive in the namenode pod", filename)
	}

	s.logger.Info("copying file into HDFS", zap.String("data_type", dataType))
	put := fmt.Sprintf("hdfs dfs -put /tmp/%s %s/%s", filename, hdfsDataRoot, dataType)
	out, err := pod.Exec(ctx, put)
	if err != nil {
		return err
	}
	s.logger.Debug("hdfs put output", zap.String("output", out))
	return nil
}

// WaitForCompletion polls Yarn until a new application has appeared
// and every application is FINISHED. Baseline is the application count
// before the file was placed. FAILED or KILLED applications abort the
// wait.
func (s *Service) WaitForCompletion(ctx context.Context, baseline int) error {
	return wait.PollUntilContextTimeout(ctx, completionPollInterval, completionPollTimeout, true,
		func(ctx context.Context) (bool, error) {
			states, err := s.ApplicationStates(ctx)
			if err != nil {
				// Transient exec failures are retried within the window.
				s.logger.Warn("could not list yarn applications", zap.Error(err))
				return false, nil
			}
			s.logger.Info("yarn application states", zap.Strings("states", states))

			if len(states) == baseline {
				return false, nil
			}
			for _, state := range states {
				switch state {
				case "FAILED", "KILLED":
					return false, fmt.Errorf("yarn application ended in state %s, ingest was not successful", state)
				case "FINISHED":
				default:
					return false, nil
				}
			}
			return true, nil
		})
}
