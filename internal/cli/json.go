// Package cli implements the blz command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// jsonOutput is the global --json flag.
var jsonOutput bool

// Response is the standard JSON envelope for all CLI output.
type Response struct {
	OK       bool        `json:"ok"`
	Data     interface{} `json:"data,omitempty"`
	Error    *ErrorInfo  `json:"error,omitempty"`
	Warnings []Warning   `json:"warnings,omitempty"`
	Meta     *Meta       `json:"meta,omitempty"`
}

// ErrorInfo carries a structured, stable-coded error.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Alias   string `json:"alias,omitempty"`
}

// Warning represents a non-fatal, per-source issue.
type Warning struct {
	Alias   string `json:"alias,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"msg"`
}

// Meta carries response-level bookkeeping.
type Meta struct {
	Count       int   `json:"count,omitempty"`
	QueryTimeMs int64 `json:"query_time_ms,omitempty"`
}

func outputJSON(resp Response) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(resp)
}

func outputSuccess(data interface{}, meta *Meta) {
	outputJSON(Response{OK: true, Data: data, Meta: meta})
}

func outputSuccessWithWarnings(data interface{}, warnings []Warning, meta *Meta) {
	outputJSON(Response{OK: true, Data: data, Warnings: warnings, Meta: meta})
}

func outputError(code, alias, message string) {
	outputJSON(Response{OK: false, Error: &ErrorInfo{Code: code, Alias: alias, Message: message}})
}

func outputErrorFromErr(code, alias string, err error) {
	outputError(code, alias, err.Error())
}

func isJSONOutput() bool {
	return jsonOutput
}

// handleError reports err through the JSON envelope when --json is set,
// and always returns the classified ExitError so main's os.Exit reflects
// the real exit code (0/1/2/124/129) regardless of output mode.
// SilenceErrors on rootCmd means cobra never prints this error itself.
func handleError(code string, alias string, err error) error {
	if jsonOutput {
		outputErrorFromErr(code, alias, err)
	}
	return classify(code, err)
}

func printOrJSON(format string, args ...interface{}) {
	if !jsonOutput {
		fmt.Printf(format, args...)
	}
}

func printlnOrJSON(a ...interface{}) {
	if !jsonOutput {
		fmt.Println(a...)
	}
}
