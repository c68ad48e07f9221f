package reporting

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spboyer/pwaudit/internal/checklist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestConvertToJUnit_Structure(t *testing.T) {
	entries := []Entry{
		newEntry(t, "good/manifest.json", installableChecklist()),
		newEntry(t, "bad/manifest.json", brokenChecklist()),
	}
	suites := ConvertToJUnit(entries, testTime)

	assert.Equal(t, "webapp-install-banner", suites.Name)
	assert.Equal(t, len(checklist.IDs())+3, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 0, suites.Errors)

	require.Len(t, suites.TestSuites, 2)
	good := suites.TestSuites[0]
	assert.Equal(t, "good/manifest.json", good.Name)
	assert.Equal(t, len(checklist.IDs()), good.Tests)
	assert.Equal(t, 0, good.Failures)
	assert.Equal(t, 1, good.Skipped)
	assert.Equal(t, "2025-06-15T12:00:00Z", good.Timestamp)
}

func TestConvertToJUnit_RequiredAndInformationalFailures(t *testing.T) {
	suites := ConvertToJUnit([]Entry{newEntry(t, "m.json", brokenChecklist())}, testTime)
	suite := suites.TestSuites[0]
	require.Len(t, suite.TestCases, 3)

	startURL := suite.TestCases[0]
	assert.Equal(t, "hasStartUrl", startURL.Name)
	assert.Equal(t, "m.json", startURL.Classname)
	require.NotNil(t, startURL.Failure)
	assert.Equal(t, "RequiredCheck", startURL.Failure.Type)
	assert.Contains(t, startURL.Failure.Message, "start_url")

	theme := suite.TestCases[1]
	assert.Nil(t, theme.Failure)
	require.NotNil(t, theme.Skipped)
	assert.Contains(t, theme.Skipped.Message, "theme_color")

	name := suite.TestCases[2]
	assert.Nil(t, name.Failure)
	assert.Nil(t, name.Skipped)
}

func TestConvertToJUnit_ParseFailure(t *testing.T) {
	cl := &checklist.Checklist{IsParseFailure: true, ParseFailureReason: checklist.NoManifestReason}
	suites := ConvertToJUnit([]Entry{newEntry(t, "missing", cl)}, testTime)
	suite := suites.TestSuites[0]

	require.Len(t, suite.TestCases, 1)
	tc := suite.TestCases[0]
	assert.Equal(t, ParseCaseName, tc.Name)
	require.NotNil(t, tc.Failure)
	assert.Equal(t, "ParseFailure", tc.Failure.Type)
	assert.Equal(t, checklist.NoManifestReason, tc.Failure.Message)
	assert.Equal(t, 1, suite.Failures)
}

func TestConvertToJUnit_ErrorEntry(t *testing.T) {
	suites := ConvertToJUnit([]Entry{{Name: "broken", Err: errors.New("invalid manifest artifact")}}, testTime)
	assert.Equal(t, 1, suites.Errors)
	tc := suites.TestSuites[0].TestCases[0]
	assert.Nil(t, tc.Failure)
	require.NotNil(t, tc.Error)
	assert.Equal(t, "AuditError", tc.Error.Type)
	assert.Equal(t, "invalid manifest artifact", tc.Error.Message)
}

func TestConvertToJUnit_Properties(t *testing.T) {
	suites := ConvertToJUnit([]Entry{newEntry(t, "m.json", brokenChecklist())}, testTime)

	propMap := make(map[string]string)
	for _, p := range suites.TestSuites[0].Properties {
		propMap[p.Name] = p.Value
	}
	assert.Equal(t, "webapp-install-banner", propMap["audit"])
	assert.Equal(t, "false", propMap["passed"])
}

func TestConvertToJUnit_Empty(t *testing.T) {
	suites := ConvertToJUnit(nil, testTime)
	assert.Equal(t, 0, suites.Tests)
	assert.Empty(t, suites.TestSuites)
}

func TestWriteJUnitXML_ValidXML(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJUnitXML(&buf, []Entry{
		newEntry(t, "good", installableChecklist()),
		newEntry(t, "bad", brokenChecklist()),
	}, testTime)
	require.NoError(t, err)

	content := buf.String()
	assert.True(t, strings.HasPrefix(content, "<?xml"))
	assert.Contains(t, content, "RequiredCheck")

	var parsed JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, 1, parsed.Failures)
	require.Len(t, parsed.TestSuites, 2)
	assert.Len(t, parsed.TestSuites[1].TestCases, 3)
}
