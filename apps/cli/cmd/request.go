package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chinazhenzhen/Storm-Bringer/packages/core/config"
	"github.com/chinazhenzhen/Storm-Bringer/packages/http"
	"github.com/chinazhenzhen/Storm-Bringer/packages/rest"
)

type requestOptions struct {
	headers     []string
	query       []string
	form        []string
	data        string
	contentType string
	include     bool
	filter      string
	schema      string
	configPath  string
	poolsSize   int
	caBundle    string
	noColor     bool
}

func newRequestCmd() *cobra.Command {
	opts := &requestOptions{}

	requestCmd := &cobra.Command{
		Use:   "request <METHOD> <URL>",
		Short: "Send a single REST request",
		Long: `Send a single request and print the response body.

The body encoding follows the Content-Type header (application/json when
unset): JSON for any "json" type, post params for form and multipart types
(-d decoded as key=value&..., followed by -F fields), and the raw -d payload
for everything else.

Examples:
  storm-bringer request GET https://api.example.com/pods -q limit=10
  storm-bringer request post https://api.example.com/pods -d '{"name":"web"}'
  storm-bringer request PATCH https://api.example.com/pods/web \
    --content-type application/json-patch+json -d '{"spec":{"replicas":3}}'
  storm-bringer request POST https://api.example.com/upload \
    --content-type multipart/form-data -F name=report -F kind=pdf
  storm-bringer request GET https://api.example.com/pods/web --filter metadata.uid`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return requestCommand(cmd, opts, args[0], args[1])
		},
	}

	f := requestCmd.Flags()
	f.StringArrayVarP(&opts.headers, "header", "H", nil, `Request header "Key: Value" (repeatable)`)
	f.StringArrayVarP(&opts.query, "query", "q", nil, "Query parameter key=value (repeatable)")
	f.StringArrayVarP(&opts.form, "form", "F", nil, "Post parameter key=value for form and multipart bodies (repeatable)")
	f.StringVarP(&opts.data, "data", "d", "", "Request body; @file reads it from a file. Form and multipart types decode it as key=value&... post params")
	f.StringVar(&opts.contentType, "content-type", "", "Content-Type header")
	f.BoolVarP(&opts.include, "include", "i", false, "Print response status and headers")
	f.StringVar(&opts.filter, "filter", "", "Print only the value at this gjson path of the response body")
	f.StringVar(&opts.schema, "schema", "", "Validate the response body against a JSON Schema file")
	f.StringVar(&opts.configPath, "config", getEnvString("STORM_CONFIG", ""), "Path to config file (env: STORM_CONFIG)")
	f.IntVar(&opts.poolsSize, "pools-size", getEnvInt("STORM_POOLS_SIZE", 0), "Connection pool size (env: STORM_POOLS_SIZE)")
	f.StringVar(&opts.caBundle, "ca-bundle", getEnvString("STORM_CA_BUNDLE", ""), "Extra trusted CA certificates, PEM (env: STORM_CA_BUNDLE)")
	f.BoolVar(&opts.noColor, "no-color", getEnvBool("STORM_NO_COLOR", false), "Disable colored output (env: STORM_NO_COLOR)")

	return requestCmd
}

func requestCommand(cmd *cobra.Command, opts *requestOptions, method, url string) error {
	cfg, err := loadRequestConfig(cmd, opts)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	// verbose in the config file traces requests unless -v was given
	if v := cmd.Flag("v"); v != nil && cfg.GetVerbose() && !v.Changed {
		_ = v.Value.Set("4")
	}

	req, err := buildRequest(cfg, opts, method, url)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	client, err := rest.NewClient(cfg.ClientOptions()...)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	out := newPrinter(cmd.OutOrStdout(), cfg.GetNoColor())

	resp, err := client.Do(req)
	if err != nil {
		return withExitCode(requestExitCode(err), err)
	}

	if opts.include {
		out.status(resp)
		out.headers(resp)
	}

	if opts.schema != "" {
		if err := validateSchema(opts.schema, resp.Body); err != nil {
			return withExitCode(ExitSchemaError, err)
		}
	}

	if opts.filter != "" {
		value := resp.Get(opts.filter)
		if !value.Exists() {
			return withExitCode(ExitUsageError, fmt.Errorf("path %q not found in response body", opts.filter))
		}
		out.body([]byte(value.String()))
		return nil
	}

	out.body(resp.Body)
	return nil
}

func requestExitCode(err error) int {
	var apiErr *rest.ApiError
	switch {
	case errors.As(err, &apiErr) && apiErr.IsTransport():
		return ExitNetworkError
	case errors.As(err, &apiErr):
		return ExitHTTPError
	}
	return ExitUsageError
}

func loadRequestConfig(cmd *cobra.Command, opts *requestOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	overrides := &config.Config{
		PoolsSize: opts.poolsSize,
		CABundle:  opts.caBundle,
	}
	if cmd.Flags().Changed("no-color") || opts.noColor {
		overrides.NoColor = config.BoolPtr(opts.noColor)
	}
	cfg = cfg.Merge(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildRequest(cfg *config.Config, opts *requestOptions, method, url string) (rest.Request, error) {
	headers := make(map[string]string, len(cfg.Headers)+len(opts.headers)+1)
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	for _, h := range opts.headers {
		key, value, err := parseHeader(h)
		if err != nil {
			return rest.Request{}, err
		}
		headers[key] = value
	}
	if opts.contentType != "" {
		headers["Content-Type"] = opts.contentType
	}

	query, err := parseKeyValues(opts.query)
	if err != nil {
		return rest.Request{}, err
	}
	form, err := parseKeyValues(opts.form)
	if err != nil {
		return rest.Request{}, err
	}

	req := rest.Request{
		Method:      method,
		URL:         url,
		Headers:     headers,
		QueryParams: query,
		PostParams:  form,
	}

	if opts.data == "" {
		return req, nil
	}

	ct := headers["Content-Type"]
	if isFormType(ct) {
		data, err := readData(opts.data)
		if err != nil {
			return rest.Request{}, err
		}
		fields, err := http.ParseFormBody(strings.TrimSpace(data))
		if err != nil {
			return rest.Request{}, err
		}
		req.PostParams = append(fields, form...)
		return req, nil
	}

	body, err := parseBody(opts.data, ct)
	if err != nil {
		return rest.Request{}, err
	}
	req.Body = body
	return req, nil
}

// isFormType reports whether -d is sent as post params: form and multipart
// bodies are built from fields, never from a raw payload.
func isFormType(ct string) bool {
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}

func readData(data string) (string, error) {
	if !strings.HasPrefix(data, "@") {
		return data, nil
	}
	raw, err := os.ReadFile(data[1:])
	if err != nil {
		return "", fmt.Errorf("failed to read body file: %w", err)
	}
	return string(raw), nil
}

// parseBody reads data (or the file named by @data). JSON content types,
// including the application/json default, get a pre-encoded
// json.RawMessage so the client sends it unchanged.
func parseBody(data, contentType string) (any, error) {
	data, err := readData(data)
	if err != nil {
		return nil, err
	}

	if contentType == "" || strings.Contains(strings.ToLower(contentType), "json") {
		if !json.Valid([]byte(data)) {
			return nil, fmt.Errorf("body is not valid JSON for Content-Type %q", contentTypeOrDefault(contentType))
		}
		return json.RawMessage(data), nil
	}
	return data, nil
}

func contentTypeOrDefault(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}

func parseHeader(h string) (string, string, error) {
	key, value, ok := strings.Cut(h, ":")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid header %q, expected \"Key: Value\"", h)
	}
	return key, strings.TrimSpace(value), nil
}

func parseKeyValues(pairs []string) (rest.Params, error) {
	var params rest.Params
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		params = params.Add(key, value)
	}
	return params, nil
}
