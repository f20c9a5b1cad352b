package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dwvctl/dwv/internal/accumulo"
	"github.com/dwvctl/dwv/internal/authorization"
	"github.com/dwvctl/dwv/internal/dictionary"
	"github.com/dwvctl/dwv/internal/ingest"
	"github.com/dwvctl/dwv/internal/pods"
	"github.com/dwvctl/dwv/internal/query"
	"github.com/dwvctl/dwv/internal/render"
	"github.com/dwvctl/dwv/internal/results"
)

func requireExt(path, ext string) error {
	if path != "" && !strings.HasSuffix(path, ext) {
		return fmt.Errorf("%s must be a %s file", path, ext)
	}
	return nil
}

func newAccumuloCmd(a *app) *cobra.Command {
	var view bool

	cmd := &cobra.Command{
		Use:   "accumulo",
		Short: "Interface with the Accumulo table cache",
		Long: "Interface with the Accumulo table cache.\n\n" +
			"Default behavior requests a refresh of the cache. With -v the\n" +
			"current cache status is printed instead.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.newClient(ctx, "datawave", pods.Web)
			if err != nil {
				return err
			}
			svc := accumulo.New(c, a.logger)

			if view {
				status, err := svc.Status(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), status)
				return nil
			}
			return svc.Reload(ctx)
		},
	}
	cmd.Flags().BoolVarP(&view, "view", "v", false, "view the cache status instead of refreshing")
	return cmd
}

func newAuthorizationCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "authorization",
		Short: "Print the whoami result for the presented certificate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.newClient(ctx, "dwv-authorization", pods.Authorization)
			if err != nil {
				return err
			}
			identity, err := authorization.New(c, a.logger).WhoAmI(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), identity)
			return nil
		},
	}
}

func newDictionaryCmd(a *app) *cobra.Command {
	var (
		auths     string
		dataTypes string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "dictionary",
		Short: "Display the dictionary of fields in DataWave",
		Long: "Display the dictionary of fields in DataWave.\n\n" +
			"With -d only the fields of the given data types are shown.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireExt(output, ".txt"); err != nil {
				return err
			}

			ctx := cmd.Context()
			c, err := a.newClient(ctx, "dwv-dictionary", pods.Dictionary)
			if err != nil {
				return err
			}
			fields, err := dictionary.New(c, a.logger).Fetch(ctx, auths, dataTypes)
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				a.logger.Warn("no fields to display")
				return nil
			}

			table := dictionary.Table(fields)
			if output == "" {
				table.Color = true
				return table.Write(cmd.OutOrStdout())
			}

			f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return err
			}
			defer f.Close()
			return table.Write(f)
		},
	}
	cmd.Flags().StringVar(&auths, "auths", "", "comma-separated authorizations used for the request")
	cmd.Flags().StringVarP(&dataTypes, "data-types", "d", "", "comma-separated data types to filter for")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the table to this .txt file instead of the terminal")
	cmd.MarkFlagRequired("auths")
	return cmd
}

func newIngestCmd(a *app) *cobra.Command {
	var (
		file     string
		dataType string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Handle ingest to DataWave",
		Long: "Handle ingest to DataWave.\n\n" +
			"Default behavior displays the states of ingest jobs. With -f the\n" +
			"file is placed into HDFS instead and the run blocks until the\n" +
			"resulting Yarn application finishes. A data type is required\n" +
			"alongside the file.\n\n" +
			"Requires kubectl to be installed.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" && dataType == "" {
				return fmt.Errorf("--data-type is required when --file is set")
			}
			if err := requireExt(file, ".json"); err != nil {
				return err
			}

			ctx := cmd.Context()
			cs, rc, err := a.kube()
			if err != nil {
				return err
			}
			svc := ingest.New(cs, rc, a.cfg.Namespace, a.logger)

			states, err := svc.ApplicationStates(ctx)
			if err != nil {
				return err
			}
			if file == "" {
				for _, state := range states {
					fmt.Fprintln(cmd.OutOrStdout(), state)
				}
				return nil
			}

			baseline := len(states)
			if err := svc.PlaceFile(ctx, file, dataType); err != nil {
				if errors.Is(err, ingest.ErrAlreadyStaged) {
					a.logger.Warn("data file already staged, assuming it was ingested earlier")
					return nil
				}
				return err
			}
			return svc.WaitForCompletion(ctx, baseline)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON data file to ingest")
	cmd.Flags().StringVarP(&dataType, "data-type", "d", "", "type of the data within the file (requires --file)")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		queryText string
		queryName string
		auths     string
		filterOn  string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Execute a query against DataWave and output the results",
		Long: "Execute a query against DataWave and output the results.\n\n" +
			"Default behavior prints the flattened events to the terminal.\n" +
			"With -o the events and query metadata are saved as JSON instead.\n" +
			"Raw data fields are never decoded: the terminal shows a\n" +
			"placeholder and the JSON file keeps the base64 payload.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireExt(output, ".json"); err != nil {
				return err
			}

			ctx := cmd.Context()
			c, err := a.newClient(ctx, "datawave", pods.Web)
			if err != nil {
				return err
			}

			params := query.DefaultParams()
			params.Name = queryName
			params.Query = queryText
			params.Auths = auths

			conn := query.NewConnection(c, params, a.logger)
			if err := conn.Open(ctx); err != nil {
				return err
			}
			defer func() {
				if err := conn.Close(ctx); err != nil {
					a.logger.Warn("closing query", zap.Error(err))
				}
			}()

			if output != "" {
				records, err := conn.Drain(ctx)
				if err != nil {
					return err
				}
				path, _ := filepath.Abs(output)
				a.logger.Info("saving results", zap.String("path", path))
				return query.Save(output, query.NewMetadata(params, conn.Returned(), a.cfg.Cert), records)
			}

			out := cmd.OutOrStdout()
			fields := results.SplitFields(filterOn)
			for {
				page, err := conn.Next(ctx)
				if err != nil {
					return err
				}
				if page == nil {
					break
				}
				records, err := results.Parse(page)
				if err != nil {
					return err
				}
				records, err = results.Filter(records, fields)
				if err != nil {
					return err
				}
				if err := render.Records(out, records); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "Query returned: %d events.\n", conn.Returned())
			return nil
		},
	}
	cmd.Flags().StringVarP(&queryText, "query", "q", "", "the query to perform, in JEXL syntax")
	cmd.Flags().StringVar(&queryName, "query-name", "test-query", "name given to the query in the request")
	cmd.Flags().StringVar(&auths, "auths", "", "comma-separated authorizations used within the query")
	cmd.Flags().StringVarP(&filterOn, "filter", "f", "", "comma-separated field names to project the results onto")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write results to this .json file instead of the terminal")
	cmd.MarkFlagRequired("query")
	cmd.MarkFlagRequired("auths")
	return cmd
}
