package reporting

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spboyer/pwaudit/internal/audit"
	"github.com/spboyer/pwaudit/internal/checklist"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one audited manifest.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one check.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure represents a failing required check.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents a manifest that could not be audited at all.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitSkipped marks an informational check that did not pass.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ParseCaseName is the test case reporting a manifest parse failure.
const ParseCaseName = "manifest-parse"

// Entry is one audited manifest. Err is set when the audit could not run, in
// which case Checklist and Verdict are nil.
type Entry struct {
	Name      string
	Checklist *checklist.Checklist
	Verdict   *audit.Verdict
	Err       error
}

// ConvertToJUnit converts audit entries to JUnit XML format.
func ConvertToJUnit(entries []Entry, timestamp time.Time) *JUnitTestSuites {
	suites := &JUnitTestSuites{Name: audit.InstallBannerMeta.ID}
	for _, e := range entries {
		suite := convertEntry(e, timestamp)
		suites.Tests += suite.Tests
		suites.Failures += suite.Failures
		suites.Errors += suite.Errors
		suites.TestSuites = append(suites.TestSuites, suite)
	}
	return suites
}

func convertEntry(e Entry, timestamp time.Time) JUnitTestSuite {
	suite := JUnitTestSuite{
		Name:      e.Name,
		Timestamp: timestamp.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "audit", Value: audit.InstallBannerMeta.ID},
		},
	}

	if e.Err != nil {
		suite.Tests = 1
		suite.Errors = 1
		suite.TestCases = []JUnitTestCase{{
			Name:      audit.InstallBannerMeta.ID,
			Classname: e.Name,
			Error:     &JUnitError{Message: e.Err.Error(), Type: "AuditError"},
		}}
		return suite
	}

	suite.Properties = append(suite.Properties, JUnitProperty{Name: "passed", Value: fmt.Sprintf("%t", e.Verdict.Passed)})

	for _, c := range e.Checklist.Checks {
		tc := JUnitTestCase{Name: string(c.ID), Classname: e.Name}
		if !c.Passing {
			if audit.IsRequired(c.ID) {
				tc.Failure = &JUnitFailure{Message: c.FailureText, Type: "RequiredCheck"}
				suite.Failures++
			} else {
				tc.Skipped = &JUnitSkipped{Message: c.FailureText}
				suite.Skipped++
			}
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	if e.Checklist.IsParseFailure {
		suite.TestCases = append(suite.TestCases, JUnitTestCase{
			Name:      ParseCaseName,
			Classname: e.Name,
			Failure: &JUnitFailure{
				Message: e.Checklist.ParseFailureReason,
				Type:    "ParseFailure",
				Body:    strings.Join(e.Checklist.Warnings, "\n"),
			},
		})
		suite.Failures++
	}

	suite.Tests = len(suite.TestCases)
	return suite
}

// WriteJUnitXML writes entries as JUnit XML to w.
func WriteJUnitXML(w io.Writer, entries []Entry, timestamp time.Time) error {
	suites := ConvertToJUnit(entries, timestamp)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}
