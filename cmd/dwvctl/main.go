// dwvctl is a CLI for interacting with a DataWave deployment over
// authenticated HTTPS.
//
// # Commands
//
//	dwvctl accumulo [-v]
//	  Request a reload of the Accumulo table cache, or view its status.
//
//	dwvctl authorization
//	  Print the identity the authorization service derives from the
//	  presented certificate (whoami).
//
//	dwvctl dictionary --auths <list> [-d <types>] [-o out.txt]
//	  Fetch the data dictionary and render it as an aligned table.
//
//	dwvctl ingest [-f data.json -d <type>]
//	  List Hadoop Yarn ingest application states; with a file, place it
//	  into HDFS and wait for the resulting job to finish.
//
//	dwvctl query -q "<JEXL>" --auths <list> [--filter f1,f2] [-o out.json]
//	  Run an EventQuery, page through the results, and print or save
//	  the flattened events.
//
// # Addressing
//
// By default requests go to the per-service virtual host under --url
// (or DWV_URL), e.g. https://datawave.<url>. With --ip the target
// pod's IP is looked up through the Kubernetes API instead; --localhost
// targets a port-forwarded deployment.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/dwvctl/dwv/internal/client"
	"github.com/dwvctl/dwv/internal/config"
	"github.com/dwvctl/dwv/internal/pods"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app carries the flag values and resolved state shared by every
// subcommand.
type app struct {
	cfgFile    string
	url        string
	namespace  string
	cert       string
	key        string
	headers    []string
	useIP      bool
	localhost  bool
	kubeconfig string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "dwvctl",
		Short:         "Interact with a DataWave deployment",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "path to a YAML config file")
	flags.StringVarP(&a.url, "url", "u", "", "DNS name of the DataWave ingress (env "+config.EnvURL+")")
	flags.StringVarP(&a.namespace, "namespace", "n", "", "Kubernetes namespace of the deployment (env "+config.EnvNamespace+")")
	flags.StringVarP(&a.cert, "cert", "c", "", "client certificate PEM file")
	flags.StringVarP(&a.key, "key", "k", "", "client key PEM file (requires --cert)")
	flags.StringArrayVarP(&a.headers, "header", "H", nil, "extra request header in \"Name: value\" form, repeatable")
	flags.BoolVarP(&a.useIP, "ip", "i", false, "address the service by pod IP looked up via the Kubernetes API")
	flags.BoolVar(&a.localhost, "localhost", false, "address a port-forwarded deployment on localhost")
	flags.StringVar(&a.kubeconfig, "kubeconfig", "", "path to a kubeconfig file (defaults to the usual resolution)")
	flags.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, or error")

	root.AddCommand(
		newAccumuloCmd(a),
		newAuthorizationCmd(a),
		newDictionaryCmd(a),
		newIngestCmd(a),
		newQueryCmd(a),
	)
	return root
}

// setup builds the logger and resolves configuration in precedence
// order: flags over environment over config file over defaults.
func (a *app) setup(cmd *cobra.Command) error {
	level, err := zapcore.ParseLevel(a.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", a.logLevel)
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zcfg.Build()
	if err != nil {
		return err
	}
	a.logger = logger

	cfg := config.Default()
	if a.cfgFile != "" {
		fileCfg, err := config.Load(a.cfgFile)
		if err != nil {
			return err
		}
		cfg = cfg.Merge(fileCfg)
	}
	cfg = cfg.Merge(config.FromEnv())

	headers, err := config.ParseHeaders(a.headers)
	if err != nil {
		return err
	}
	cfg = cfg.Merge(config.Config{
		URL:       a.url,
		Namespace: a.namespace,
		Cert:      a.cert,
		Key:       a.key,
		Headers:   headers,
	})

	if cfg.Key != "" && cfg.Cert == "" {
		return fmt.Errorf("--key requires --cert")
	}
	a.cfg = cfg
	return nil
}

// kube builds the clientset for commands that reach into the cluster.
func (a *app) kube() (kubernetes.Interface, *rest.Config, error) {
	return pods.NewClientset(a.kubeconfig)
}

// newClient builds the HTTPS client for one service. With --ip, the
// service's pod is looked up first and addressed directly.
func (a *app) newClient(ctx context.Context, service string, info pods.Info) (*client.Client, error) {
	opts := client.DefaultOptions()
	opts.Host = a.cfg.URL
	opts.Localhost = a.localhost
	opts.CertFile = a.cfg.Cert
	opts.KeyFile = a.cfg.Key
	opts.Headers = a.cfg.Headers
	opts.Logger = a.logger

	if a.useIP {
		cs, rc, err := a.kube()
		if err != nil {
			return nil, err
		}
		pod, err := pods.Lookup(ctx, cs, rc, info, a.cfg.Namespace, a.logger)
		if err != nil {
			return nil, err
		}
		opts.PodIP = pod.IP
	}
	return client.New(service, opts)
}
