// Package script runs edit sessions described in YAML.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Script describes one headless edit session:
//
//	image: scan.png
//	page: 0
//	display_width: 540
//	steps:
//	  - brightness: 1.4
//	  - grayscale: true
//	  - rect: [10, 10, 200, 120]
//	  - perspective: 2
//	output: out.png
//	share: false
type Script struct {
	Image        string  `yaml:"image"`
	Page         int     `yaml:"page"`
	DisplayWidth float64 `yaml:"display_width"`
	Steps        []Step  `yaml:"steps"`
	Output       string  `yaml:"output"`
	Share        bool    `yaml:"share"`
}

// Step sets exactly one operation. Selection coordinates are in display space.
type Step struct {
	Brightness  *float64    `yaml:"brightness,omitempty"`
	Contrast    *float64    `yaml:"contrast,omitempty"`
	Grayscale   *bool       `yaml:"grayscale,omitempty"`
	Enhance     *bool       `yaml:"enhance,omitempty"`
	Template    *string     `yaml:"template,omitempty"`
	Rect        []float64   `yaml:"rect,omitempty"`
	Polygon     [][]float64 `yaml:"polygon,omitempty"`
	Perspective int         `yaml:"perspective,omitempty"`
	ClearCrop   bool        `yaml:"clear_crop,omitempty"`
}

func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) Validate() error {
	if s.Image == "" {
		return errors.New("script: image is required")
	}
	if s.DisplayWidth < 0 {
		return errors.New("script: display_width must be positive")
	}
	if s.Page < 0 {
		return errors.New("script: page must not be negative")
	}
	for i, st := range s.Steps {
		if n := st.count(); n != 1 {
			return fmt.Errorf("script: step %d sets %d operations, want exactly one", i+1, n)
		}
		if st.Rect != nil && len(st.Rect) != 4 {
			return fmt.Errorf("script: step %d: rect needs [x1, y1, x2, y2]", i+1)
		}
		for _, p := range st.Polygon {
			if len(p) != 2 {
				return fmt.Errorf("script: step %d: polygon points are [x, y] pairs", i+1)
			}
		}
		if st.Perspective < 0 {
			return fmt.Errorf("script: step %d: perspective toggles must not be negative", i+1)
		}
	}
	return nil
}

func (st Step) count() int {
	n := 0
	for _, set := range []bool{
		st.Brightness != nil,
		st.Contrast != nil,
		st.Grayscale != nil,
		st.Enhance != nil,
		st.Template != nil,
		st.Rect != nil,
		st.Polygon != nil,
		st.Perspective > 0,
		st.ClearCrop,
	} {
		if set {
			n++
		}
	}
	return n
}
