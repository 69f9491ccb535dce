package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manojkp08/adpulse/internal/metrics"
	"github.com/manojkp08/adpulse/internal/models"
	"github.com/manojkp08/adpulse/internal/narrative"
	"github.com/manojkp08/adpulse/internal/pipeline"
	"github.com/manojkp08/adpulse/internal/store"
)

const sampleCSV = `Campaign_Name,Platform,Impressions,Clicks,Spend,Conversions
A,X,1000,50,100,10
B,Y,2000,100,50,20
`

type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) Generate(ctx context.Context, stats *models.AggregateStats) (string, error) {
	return s.text, s.err
}

func newTestServer(t *testing.T, gen narrative.Generator) (*httptest.Server, *store.RunStore) {
	t.Helper()
	st := store.NewRunStore(10)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	met := metrics.New()
	pl := pipeline.New(gen, st, met, log)
	srv := httptest.NewServer(NewRouter(log, pl, st, met, 1<<20))
	t.Cleanup(srv.Close)
	return srv, st
}

func multipartCSV(t *testing.T, csv string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "campaigns.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateReportJSON(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{text: "Solid week."})

	body, ctype := multipartCSV(t, sampleCSV)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/reports", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res models.RunResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "Solid week.", res.Narrative)
	assert.Equal(t, "B", res.Stats.TopCampaign)
	assert.Equal(t, "Y", res.Stats.BestPlatform)
	assert.Equal(t, 5.0, res.Stats.GlobalCTR)
}

func TestCreateReportPDFDownload(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{text: "Solid week."})

	body, ctype := multipartCSV(t, sampleCSV)
	resp, err := http.Post(srv.URL+"/reports", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Executive_Ad_Report.pdf")

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NotEmpty(t, b)
	assert.Equal(t, "%PDF", string(b[:4]))
}

func TestCreateReportDegradesWithoutNarrative(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{err: narrative.ErrUnavailable})

	// JSON view reports the degradation reason alongside full stats.
	body, ctype := multipartCSV(t, sampleCSV)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/reports?format=json", body)
	req.Header.Set("Content-Type", ctype)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res models.RunResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.NotEmpty(t, res.NarrativeError)
	require.NotNil(t, res.Stats)
	assert.Equal(t, 150.0, res.Stats.TotalSpend)

	// The PDF download still renders without a narrative section.
	body, ctype = multipartCSV(t, sampleCSV)
	resp2, err := http.Post(srv.URL+"/reports", ctype, body)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	b, _ := io.ReadAll(resp2.Body)
	assert.NotEmpty(t, b)
}

func TestAnalyzeRawCSVBody(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{err: narrative.ErrUnavailable})

	resp, err := http.Post(srv.URL+"/analyze", "text/csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res models.RunResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Empty(t, res.Narrative)
	assert.Empty(t, res.NarrativeError)
	assert.Equal(t, 30, res.Stats.TotalConversions)
}

func TestMissingColumnsRejected(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{})

	in := "Campaign_Name,Platform,Clicks\nA,X,10\n"
	resp, err := http.Post(srv.URL+"/analyze", "text/csv", strings.NewReader(in))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "missing required columns")
	assert.Contains(t, body["error"], "Impressions")
}

func TestEmptyTableRejected(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{})

	in := "Campaign_Name,Platform,Impressions,Clicks,Spend,Conversions\n"
	resp, err := http.Post(srv.URL+"/analyze", "text/csv", strings.NewReader(in))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestMultipartWithoutFileField(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("data", "not a file"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/reports", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunHistoryEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{text: "ok"})

	body, ctype := multipartCSV(t, sampleCSV)
	resp, err := http.Post(srv.URL+"/reports?format=json", ctype, body)
	require.NoError(t, err)
	var res models.RunResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	resp.Body.Close()

	listResp, err := http.Get(srv.URL + "/runs")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var runs []models.RunSummary
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.True(t, runs[0].HasNarrative)

	oneResp, err := http.Get(srv.URL + "/runs/" + res.RunID)
	require.NoError(t, err)
	defer oneResp.Body.Close()
	require.Equal(t, http.StatusOK, oneResp.StatusCode)

	missingResp, err := http.Get(srv.URL + "/runs/nope")
	require.NoError(t, err)
	defer missingResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, missingResp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestUploadSizeCap(t *testing.T) {
	st := store.NewRunStore(10)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	met := metrics.New()
	pl := pipeline.New(stubGenerator{}, st, met, log)
	srv := httptest.NewServer(NewRouter(log, pl, st, met, 64))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/analyze", "text/csv", strings.NewReader(sampleCSV+strings.Repeat("C,Z,1,1,1,1\n", 100)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
