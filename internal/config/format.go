/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"goscreenwriter/internal/domain"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed format.schema.json
var formatSchema []byte

// Format builds the screenplay format: the built-in defaults with the page
// section and per-type overrides applied. Unknown type names are an error.
func (c AppConfig) Format() (domain.Format, error) {
	f := domain.DefaultFormat()
	mergeInt(&f.LinesPerPage, c.Page.LinesPerPage)
	mergeInt(&f.HeaderLines, c.Page.HeaderLines)
	mergeInt(&f.MinActionLines, c.Page.MinActionLines)
	mergeInt(&f.MinDialogueLines, c.Page.MinDialogueLines)
	for name, o := range c.Types {
		t, ok := domain.ParseTypeName(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return f, fmt.Errorf("config types: unknown element type %q", name)
		}
		s := &f.Types[t]
		if o.Indent != nil {
			s.Indent = *o.Indent
		}
		if o.Width != nil {
			s.Width = *o.Width
		}
		if o.SpacingBefore != nil {
			s.SpacingBefore = *o.SpacingBefore
		}
		if o.SpacingBetween != nil {
			s.SpacingBetween = *o.SpacingBetween
		}
		if o.Uppercase != nil {
			s.Uppercase = *o.Uppercase
		}
	}
	if err := ValidateFormat(f); err != nil {
		return f, err
	}
	return f, nil
}

type formatDoc struct {
	LinesPerPage     int                        `json:"lines_per_page"`
	HeaderLines      int                        `json:"header_lines"`
	MinActionLines   int                        `json:"min_action_lines"`
	MinDialogueLines int                        `json:"min_dialogue_lines"`
	Types            map[string]domain.TypeSpec `json:"types"`
}

// ValidateFormat checks f against the embedded format schema and reports
// every violation in one error.
func ValidateFormat(f domain.Format) error {
	doc := formatDoc{
		LinesPerPage:     f.LinesPerPage,
		HeaderLines:      f.HeaderLines,
		MinActionLines:   f.MinActionLines,
		MinDialogueLines: f.MinDialogueLines,
		Types:            make(map[string]domain.TypeSpec, len(domain.ElementTypes)),
	}
	for _, t := range domain.ElementTypes {
		doc.Types[t.String()] = f.Types[t]
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode format: %w", err)
	}
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(formatSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate format: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidFormat, strings.Join(msgs, "; "))
}
