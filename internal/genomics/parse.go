// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package genomics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// MaxTotalBasePairs is the largest number of base pairs a single upload may
// cover across all of its regions.
const MaxTotalBasePairs = 10000

// These are the messages reported to users for invalid uploads.
const (
	msgNotNumbers       = "Start and End must be numbers"
	msgStartAfterEnd    = "Start must be less than or equal to End"
	msgBadChromosome    = "Invalid chromosome"
	msgTooFewColumns    = "Each region must have a chromosome, start and end"
	msgTooManyBasePairs = "The total base pairs in the input regions must not exceed 10,000"
	msgNoRegions        = "No regions provided"
)

var chromosomeRe = regexp.MustCompile(`^chr([0-9]+|[XYM])$`)

// ValidationError describes an upload that was rejected before any query was
// issued.  Line is the 1-based input line, or zero when the error applies to
// the upload as a whole.
type ValidationError struct {
	Line    int
	Message string
}

func (err *ValidationError) Error() string {
	if err.Line > 0 {
		return fmt.Sprintf("line %d: %s", err.Line, err.Message)
	}
	return err.Message
}

// ParseBED reads whitespace separated regions from r.  Each line holds a
// chromosome, start and end followed by optional reference allele, alternate
// allele and strand columns.  Blank lines, comments and track or browser lines
// are skipped.  The regions are validated and numbered before being returned.
func ParseBED(r io.Reader) ([]InputRegion, error) {
	var regions []InputRegion

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") ||
			strings.HasPrefix(text, "track") || strings.HasPrefix(text, "browser") {
			continue
		}

		region, err := parseLine(strings.Fields(text))
		if err != nil {
			return nil, &ValidationError{Line: line, Message: err.Error()}
		}
		regions = append(regions, region)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading regions: %v", err)
	}

	if err := Validate(regions); err != nil {
		return nil, err
	}
	return Number(regions), nil
}

func parseLine(fields []string) (InputRegion, error) {
	if len(fields) < 3 {
		return InputRegion{}, errors.New(msgTooFewColumns)
	}
	if !chromosomeRe.MatchString(fields[0]) {
		return InputRegion{}, errors.New(msgBadChromosome)
	}

	start, err := strconv.Atoi(fields[1])
	if err != nil {
		return InputRegion{}, errors.New(msgNotNumbers)
	}
	end, err := strconv.Atoi(fields[2])
	if err != nil {
		return InputRegion{}, errors.New(msgNotNumbers)
	}

	region := InputRegion{Region: Region{Chr: fields[0], Start: start, End: end}}
	if len(fields) > 3 {
		region.Ref = fields[3]
	}
	if len(fields) > 4 {
		region.Alt = fields[4]
	}
	if len(fields) > 5 {
		region.Strand = fields[5]
	}
	return region, nil
}

// Validate checks the coordinates of each region and the total number of base
// pairs across all regions.
func Validate(regions []InputRegion) error {
	if len(regions) == 0 {
		return &ValidationError{Message: msgNoRegions}
	}

	var total int
	for _, region := range regions {
		if !chromosomeRe.MatchString(region.Chr) {
			return &ValidationError{Message: fmt.Sprintf("%s: %s", msgBadChromosome, region.Chr)}
		}
		if region.Start < 0 || region.End < 0 {
			return &ValidationError{Message: msgNotNumbers}
		}
		if region.Start > region.End {
			return &ValidationError{Message: fmt.Sprintf("%s: %s", msgStartAfterEnd, region)}
		}
		total += region.Len()
	}
	if total > MaxTotalBasePairs {
		return &ValidationError{Message: msgTooManyBasePairs}
	}
	return nil
}
