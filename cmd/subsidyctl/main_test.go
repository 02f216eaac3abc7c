// cmd/subsidyctl/main_test.go
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRules = `
rules:
  - name: land-ceiling
    match: 'up to 5 acres'
    expr: 'farmer.land_size <= 5.0'
  - name: maharashtra-resident
    match: 'resident of maharashtra'
    expr: 'farmer.state == "maharashtra"'
`

const testCatalog = `[
  {"id": 1, "title": "Wheat Seed Support", "description": "Certified wheat seed for small farms",
   "amount": 15000, "eligibility": ["Land holding up to 5 acres"], "documents_required": ["Aadhaar"],
   "application_start_date": "2025-01-01", "application_end_date": "2099-12-31"},
  {"id": 2, "title": "Sugarcane Drip Scheme", "description": "Drip irrigation for sugarcane",
   "amount": 50000, "eligibility": ["Resident of Maharashtra"]}
]`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// ==========================
// recommend
// ==========================

func TestRecommend_RulesProvider(t *testing.T) {
	dir := t.TempDir()
	rules := writeFile(t, dir, "rules.yaml", testRules)
	catalogPath := writeFile(t, dir, "catalog.json", testCatalog)
	profile := writeFile(t, dir, "profile.json", `{"farmer_profile": {
		"income": 80000, "farmer_type": "small", "land_size": 3,
		"crop_type": "wheat", "state": "Punjab"}}`)

	out, err := execute(t, "recommend",
		"--profile", profile, "--catalog", catalogPath,
		"--provider", "rules", "--rules", rules)
	require.NoError(t, err)

	var resp struct {
		Success         bool `json:"success"`
		TotalFound      int  `json:"total_found"`
		Recommendations []struct {
			Rank  int    `json:"rank"`
			Title string `json:"title"`
		} `json:"recommendations"`
		Summary   string `json:"summary"`
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)

	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.TotalFound)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, 1, resp.Recommendations[0].Rank)
	assert.Equal(t, "Wheat Seed Support", resp.Recommendations[0].Title)
	assert.Equal(t, "cli", resp.RequestID)
	assert.Contains(t, resp.Summary, "Punjab")
}

func TestReadProfile(t *testing.T) {
	dir := t.TempDir()

	flat := writeFile(t, dir, "flat.json", `{"income": "50000", "state": "Punjab"}`)
	p, err := readProfile(nil, flat)
	require.NoError(t, err)
	assert.Equal(t, "Punjab", p.State)
	assert.Equal(t, "50000", p.Income.String())

	p, err = readProfile(strings.NewReader(`{"farmer_profile": {"state": "Bihar"}}`), "-")
	require.NoError(t, err)
	assert.Equal(t, "Bihar", p.State)

	_, err = readProfile(nil, filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.json", `[1, 2]`)
	_, err = readProfile(nil, bad)
	assert.Error(t, err)
}

// ==========================
// registry
// ==========================

func TestRegistryCommands(t *testing.T) {
	out, err := execute(t, "registry", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "recommend-subsidies")

	out, err = execute(t, "registry", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Registry validation passed")
}
