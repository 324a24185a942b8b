package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/forgelab/dataprobe/internal/config"
	"github.com/forgelab/dataprobe/internal/logging"
	"github.com/forgelab/dataprobe/internal/report"
	"github.com/forgelab/dataprobe/internal/runtime"
	"github.com/forgelab/dataprobe/internal/source"
	"github.com/forgelab/dataprobe/internal/stage"
)

var (
	flagRequest      string
	flagConfig       string
	flagDataset      string
	flagOverrides    []string
	flagProjectPaths []string
	flagMode         string
	flagMarker       string
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Probe one pipeline node and print the trace",
	Long: "Probe loads a pipeline configuration document, instantiates the target\n" +
		"node with caching and auto-applied transforms disabled, feeds one record\n" +
		"through each stage, and prints the per-step trace to stdout as either a\n" +
		"single JSON report or a stream of line-delimited JSON events.",
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&flagRequest, "request", "", "probe request file (YAML or JSON)")
	probeCmd.Flags().StringVar(&flagConfig, "config", "", "pipeline configuration document")
	probeCmd.Flags().StringVar(&flagDataset, "dataset", "", "dot-separated path of the node to probe")
	probeCmd.Flags().StringArrayVar(&flagOverrides, "override", nil, "root path override, old=new (repeatable)")
	probeCmd.Flags().StringArrayVar(&flagProjectPaths, "project-path", nil, "extra search root for relative file references (repeatable)")
	probeCmd.Flags().StringVar(&flagMode, "mode", "report", "output mode: report or stream")
	probeCmd.Flags().StringVar(&flagMarker, "marker", "", "prefix for each streamed event line")
}

func runProbe(cmd *cobra.Command, _ []string) error {
	req, err := buildRequest()
	if err != nil {
		return err
	}

	stage.RegisterBuiltins()
	source.RegisterBuiltins()

	logger := logging.New("probe")
	runner := runtime.New(runtime.WithLogger(logger))

	switch flagMode {
	case "stream":
		sink := report.NewStreamSink(cmd.OutOrStdout(), flagMarker)
		runner.Run(cmd.Context(), req, sink)
		return nil
	case "report":
		resp := runner.RunReport(cmd.Context(), req)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
		if !resp.Success {
			os.Exit(1)
		}
		return nil
	default:
		return errors.Newf("unknown mode %q (want report or stream)", flagMode)
	}
}

// buildRequest assembles the probe request from --request or from the
// individual flags; flags override the request file.
func buildRequest() (*config.Request, error) {
	var req *config.Request
	if flagRequest != "" {
		loaded, err := config.LoadRequest(flagRequest)
		if err != nil {
			return nil, err
		}
		req = loaded
	} else {
		req = &config.Request{}
	}

	if flagConfig != "" {
		req.ConfigPath = flagConfig
	}
	if flagDataset != "" {
		req.DatasetPath = flagDataset
	}
	if len(flagOverrides) > 0 {
		if req.PathOverrides == nil {
			req.PathOverrides = make(map[string]string, len(flagOverrides))
		}
		for _, o := range flagOverrides {
			old, repl, ok := strings.Cut(o, "=")
			if !ok {
				return nil, errors.Newf("override %q must be old=new", o)
			}
			req.PathOverrides[old] = repl
		}
	}
	req.ProjectPaths = append(req.ProjectPaths, flagProjectPaths...)

	return req, req.Validate()
}
