package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmccarv/substsolve/internal/search"
)

const sampleText = "internal/search/testdata/english.txt"

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func buildCorpus(t *testing.T, n string) string {
	t.Helper()
	out, err := execute(t, "", "corpus", "-n", n, sampleText)
	require.NoError(t, err)

	fn := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(fn, []byte(out), 0o600))
	return fn
}

func TestEncryptDecrypt(t *testing.T) {
	const key = "QWERTYUIOPASDFGHJKLZXCVBNM"

	ct, err := execute(t, "attack at dawn\n", "encrypt", "--key", key)
	require.NoError(t, err)
	ct = strings.TrimSpace(ct)
	assert.Equal(t, "QZZQEAQZRQVF", ct)

	pt, err := execute(t, ct, "decrypt", "-k", key)
	require.NoError(t, err)
	assert.Equal(t, "ATTACKATDAWN", strings.TrimSpace(pt))
}

func TestDecryptRequiresKey(t *testing.T) {
	_, err := execute(t, "ABC", "decrypt")
	assert.Error(t, err)

	_, err = execute(t, "ABC", "decrypt", "--key", "ABC")
	assert.Error(t, err)
}

func TestCorpusAndStats(t *testing.T) {
	fn := buildCorpus(t, "3")

	b, err := os.ReadFile(fn)
	require.NoError(t, err)
	first := strings.SplitN(string(b), "\n", 2)[0]
	assert.True(t, strings.HasPrefix(first, "THE "), first)

	out, err := execute(t, "", "stats", "--corpus", fn, "--top", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "n:          3")
	assert.Contains(t, out, "normalized:")
	assert.Contains(t, out, "THE ")
}

func TestStatsRejectsBadCorpus(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(fn, []byte("THE ten\n"), 0o600))

	_, err := execute(t, "", "stats", "--corpus", fn)
	assert.Error(t, err)
}

func TestSolve(t *testing.T) {
	fn := buildCorpus(t, "2")
	ct, err := execute(t, "the best key seen over all the starts is kept and when it stops changing the message can be read",
		"encrypt", "--key", "QWERTYUIOPASDFGHJKLZXCVBNM")
	require.NoError(t, err)

	out, err := execute(t, ct, "--corpus", fn, "--top-ngrams", "10", "--seed", "1",
		"--patience", "100", "--max-restarts", "3", "--topn", "2")
	require.NoError(t, err)

	assert.Contains(t, out, strings.TrimSpace(ct))
	assert.Contains(t, out, "New best score!!")
	assert.Contains(t, out, "Going from ABCDEFGHIJKLMNOPQRSTUVWXYZ to ")
	assert.Contains(t, out, "Evaluated")
	assert.Contains(t, out, "over 3 restarts")
}

func TestSolveParallel(t *testing.T) {
	fn := buildCorpus(t, "2")

	out, err := execute(t, "ZIT CTLZ ATN LTTF", "--corpus", fn, "--top-ngrams", "10",
		"--seed", "2", "--patience", "50", "--max-restarts", "8", "-p", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Evaluated")
}

func TestSolveErrors(t *testing.T) {
	fn := buildCorpus(t, "4")

	_, err := execute(t, "ABCD", "--corpus", fn, "--max-restarts", "1")
	assert.Error(t, err, "ciphertext no longer than the n-gram")

	_, err = execute(t, "HELLO, WORLD", "--corpus", fn, "--max-restarts", "1")
	assert.Error(t, err)

	_, err = execute(t, "HELLOWORLD", "--corpus", fn, "--patience", "0")
	assert.Error(t, err)

	_, err = execute(t, "HELLOWORLD", "--corpus", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	fn := buildCorpus(t, "2")
	cfgFile := filepath.Join(t.TempDir(), "substsolve.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("corpus: "+fn+"\npatience: 0\n"), 0o600))

	// patience from the file is invalid until the flag overrides it
	_, err := execute(t, "HELLOWORLDAGAIN", "--config", cfgFile, "--max-restarts", "1")
	assert.Error(t, err)

	_, err = execute(t, "HELLOWORLDAGAIN", "--config", cfgFile, "--max-restarts", "1", "--patience", "20")
	assert.NoError(t, err)
}

func TestMetricsRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	search.NewMetrics(reg)

	rec := httptest.NewRecorder()
	newMetricsRouter(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "substsolve_attempts_total")
}
