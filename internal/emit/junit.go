package emit

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/tast/internal/plan"
)

// JUnitEncoder writes a plan as a JUnit XML report in which every planned
// step is a test case that has not run yet. Step lines go to system-out.
type JUnitEncoder struct{}

func (JUnitEncoder) Name() Format { return JUnit }

type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Name    string       `xml:"name,attr"`
	Tests   int          `xml:"tests,attr"`
	Time    string       `xml:"time,attr"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name  string      `xml:"name,attr"`
	Tests int         `xml:"tests,attr"`
	Time  string      `xml:"time,attr"`
	Cases []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string `xml:"name,attr"`
	ClassName string `xml:"classname,attr"`
	SystemOut string `xml:"system-out,omitempty"`
}

func (JUnitEncoder) EncodePlan(w io.Writer, p *plan.Plan) error {
	suite := junitSuite{Name: p.Name, Tests: len(p.Steps), Time: "0"}
	for _, s := range p.Steps {
		var lines []string
		for _, group := range [][]*plan.Action{s.Preconditions, s.Actions, s.Assertions} {
			for _, a := range group {
				lines = append(lines, capitalize(a.Keyword.String())+" "+a.Text)
			}
		}
		tc := junitCase{Name: s.Node, ClassName: p.Name}
		if len(lines) > 0 {
			tc.SystemOut = "\n" + strings.Join(lines, "\n") + "\n"
		}
		suite.Cases = append(suite.Cases, tc)
	}
	doc := junitSuites{Name: p.Name, Tests: len(p.Steps), Time: "0", Suites: []junitSuite{suite}}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode plan %q as junit: %w", p.Name, err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
