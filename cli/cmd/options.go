package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/mediaresolve/cli/config"
	"github.com/pithecene-io/mediaresolve/handle"
	"github.com/pithecene-io/mediaresolve/lode"
	"github.com/pithecene-io/mediaresolve/policy"
	"github.com/pithecene-io/mediaresolve/types"
)

// resolveOptions is the merged view of config file and flags.
// Flags win over the file; the file wins over built-in defaults.
type resolveOptions struct {
	scratchDir     string
	filter         types.Filter
	selectionLimit int
	parallel       int
	httpTimeout    time.Duration
	label          *string
	policy         policy.Policy

	// source backs store:// handles; nil when not configured.
	source *lode.StoreConfig
	// report persists the outcome; nil when not configured.
	report       *lode.StoreConfig
	reportFormat lode.ReportFormat

	adapter adapterChoice
}

// adapterChoice holds completion notification settings.
type adapterChoice struct {
	kind    string // "", "webhook" or "redis"
	url     string
	channel string
	headers map[string]string
	timeout time.Duration
	retries *int
}

// errInvalidInput marks option errors caused by bad user input
// (exit 3) as opposed to unreadable config (exit 2).
var errInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidInput, fmt.Sprintf(format, args...))
}

func pickString(c *cli.Context, flag, fromConfig string) string {
	if c.IsSet(flag) {
		return c.String(flag)
	}
	return fromConfig
}

func pickInt(c *cli.Context, flag string, fromConfig int) int {
	if c.IsSet(flag) {
		return c.Int(flag)
	}
	return fromConfig
}

func pickDuration(c *cli.Context, flag string, fromConfig, def time.Duration) time.Duration {
	switch {
	case c.IsSet(flag):
		return c.Duration(flag)
	case fromConfig > 0:
		return fromConfig
	default:
		return def
	}
}

func pickBool(c *cli.Context, flag string, fromConfig bool) bool {
	if c.IsSet(flag) {
		return c.Bool(flag)
	}
	return fromConfig
}

// parseResolveOptions merges cfg with the command's flags.
func parseResolveOptions(c *cli.Context, cfg *config.Config) (*resolveOptions, error) {
	opts := &resolveOptions{
		scratchDir:     pickString(c, "scratch-dir", cfg.ScratchDir),
		selectionLimit: pickInt(c, "selection-limit", cfg.SelectionLimit),
		parallel:       pickInt(c, "parallel", cfg.Parallel),
		httpTimeout:    pickDuration(c, "http-timeout", cfg.HTTPTimeout.Duration, handle.DefaultHTTPTimeout),
		policy:         cfg.Policy.Policy(),
	}

	filter, err := types.ParseFilter(pickString(c, "filter", cfg.Filter))
	if err != nil {
		return nil, invalid("%v", err)
	}
	opts.filter = filter

	if opts.selectionLimit < 0 {
		return nil, invalid("selection limit must be >= 0, got %d", opts.selectionLimit)
	}
	if opts.parallel < 0 {
		return nil, invalid("parallel must be >= 0, got %d", opts.parallel)
	}
	if label := c.String("label"); label != "" {
		opts.label = &label
	}

	source := config.StorageConfig{
		Backend:     pickString(c, "source-backend", cfg.Source.Backend),
		Path:        pickString(c, "source-path", cfg.Source.Path),
		Region:      pickString(c, "source-region", cfg.Source.Region),
		Endpoint:    pickString(c, "source-endpoint", cfg.Source.Endpoint),
		S3PathStyle: pickBool(c, "source-s3-path-style", cfg.Source.S3PathStyle),
	}
	if opts.source, err = storeConfig("source", source); err != nil {
		return nil, err
	}

	report := config.StorageConfig{
		Backend:     pickString(c, "report-backend", cfg.Report.Backend),
		Path:        pickString(c, "report-path", cfg.Report.Path),
		Region:      pickString(c, "report-region", cfg.Report.Region),
		Endpoint:    pickString(c, "report-endpoint", cfg.Report.Endpoint),
		S3PathStyle: pickBool(c, "report-s3-path-style", cfg.Report.S3PathStyle),
	}
	if opts.report, err = storeConfig("report", report); err != nil {
		return nil, err
	}
	if opts.reportFormat, err = lode.ParseReportFormat(pickString(c, "report-format", cfg.Report.Format)); err != nil {
		return nil, invalid("%v", err)
	}

	if opts.adapter, err = parseAdapterChoice(c, cfg.Adapter); err != nil {
		return nil, err
	}
	return opts, nil
}

// storeConfig validates a store block. Returns nil when nothing is configured.
func storeConfig(name string, sc config.StorageConfig) (*lode.StoreConfig, error) {
	if !sc.Enabled() {
		return nil, nil
	}
	backend, err := lode.ParseBackend(sc.Backend)
	if err != nil {
		return nil, invalid("%s: %v", name, err)
	}
	if sc.Path == "" && backend != lode.BackendMemory {
		return nil, invalid("%s: --%s-path is required for the %s backend", name, name, backend)
	}
	return &lode.StoreConfig{
		Backend:      backend,
		Path:         sc.Path,
		Region:       sc.Region,
		Endpoint:     sc.Endpoint,
		UsePathStyle: sc.S3PathStyle,
	}, nil
}

func parseAdapterChoice(c *cli.Context, ac config.AdapterConfig) (adapterChoice, error) {
	choice := adapterChoice{
		kind:    strings.ToLower(pickString(c, "adapter", ac.Type)),
		url:     pickString(c, "adapter-url", ac.URL),
		channel: pickString(c, "adapter-channel", ac.Channel),
		timeout: pickDuration(c, "adapter-timeout", ac.Timeout.Duration, 0),
		retries: ac.Retries,
		headers: make(map[string]string, len(ac.Headers)),
	}
	for k, v := range ac.Headers {
		choice.headers[k] = v
	}
	if c.IsSet("adapter-retries") {
		n := c.Int("adapter-retries")
		choice.retries = &n
	}

	headers, err := parseHeaders(c.StringSlice("adapter-header"))
	if err != nil {
		return adapterChoice{}, err
	}
	for k, v := range headers {
		choice.headers[k] = v
	}

	switch choice.kind {
	case "":
		return choice, nil
	case adapterWebhook, adapterRedis:
	default:
		return adapterChoice{}, invalid("unknown adapter %q (must be webhook or redis)", choice.kind)
	}
	if choice.url == "" {
		return adapterChoice{}, invalid("--adapter-url is required when --adapter is set")
	}
	if choice.retries != nil && *choice.retries < 0 {
		return adapterChoice{}, invalid("adapter retries must be >= 0, got %d", *choice.retries)
	}
	return choice, nil
}

// parseHeaders parses repeated "Key=Value" or "Key: Value" flag values.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		k, v, ok := strings.Cut(h, "=")
		if !ok {
			k, v, ok = strings.Cut(h, ":")
		}
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, invalid("malformed header %q (want Key=Value)", h)
		}
		headers[k] = strings.TrimSpace(v)
	}
	return headers, nil
}
