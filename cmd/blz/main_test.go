package main_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blz-dev/blz/internal/testutil"
)

const fixtureDoc = `# Widget Toolkit

Welcome to the widget toolkit documentation.

## Installation

Run ` + "`npm install widget-toolkit`" + ` to get started.

## Usage

Import the package and call ` + "`Widget.New()`" + ` to create a widget.
`

func serveFixture(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(fixtureDoc))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAddSearchGetLifecycle(t *testing.T) {
	env := testutil.NewTestEnv(t)
	srv := serveFixture(t)

	env.RunCLI("add", "widgets", srv.URL+"/llms.txt").MustSucceed(t)

	search := env.RunCLI("search", "widget")
	search.MustSucceed(t)
	var searchData struct {
		Total   int `json:"total"`
		Results []struct {
			Alias string `json:"alias"`
			Lines string `json:"lines"`
		} `json:"results"`
	}
	if err := search.DataInto(&searchData); err != nil {
		t.Fatalf("decode search data: %v", err)
	}
	if searchData.Total == 0 {
		t.Fatalf("expected at least one search hit, got none: %s", search.RawJSON)
	}

	get := env.RunCLI("get", "widgets:1-3")
	get.MustSucceed(t)

	list := env.RunCLI("list")
	list.MustSucceed(t)
	var listData []struct {
		Alias string `json:"alias"`
	}
	if err := list.DataInto(&listData); err != nil {
		t.Fatalf("decode list data: %v", err)
	}
	if len(listData) != 1 || listData[0].Alias != "widgets" {
		t.Fatalf("expected exactly one source named widgets, got: %+v", listData)
	}
}

func TestAddRejectsDuplicateAlias(t *testing.T) {
	env := testutil.NewTestEnv(t)
	srv := serveFixture(t)

	env.RunCLI("add", "widgets", srv.URL+"/llms.txt").MustSucceed(t)
	env.RunCLI("add", "widgets", srv.URL+"/llms.txt").MustFail(t, "SOURCE_EXISTS")
}

func TestGetUnknownAliasReportsNotFound(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.RunCLI("get", "nope:1-2").MustFail(t, "SOURCE_NOT_FOUND")
}

func TestRemoveDeletesSource(t *testing.T) {
	env := testutil.NewTestEnv(t)
	srv := serveFixture(t)

	env.RunCLI("add", "widgets", srv.URL+"/llms.txt").MustSucceed(t)
	env.RunCLI("remove", "widgets").MustSucceed(t)
	env.RunCLI("info", "widgets").MustFail(t, "SOURCE_NOT_FOUND")
}
