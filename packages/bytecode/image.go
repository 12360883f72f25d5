package bytecode

import (
	"context"
	"fmt"
	"strings"

	"github.com/blang/semver"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// ImageFormat is the version written into every image. Images are readable
// when their major version matches.
var ImageFormat = semver.MustParse("1.0.0")

// Image is a compiled program as stored on disk.
type Image struct {
	Format string        `yaml:"format"`
	Source string        `yaml:"source,omitempty"`
	Code   []Instruction `yaml:"code"`
}

// MarshalImage encodes code as a YAML image. src is kept for listings and
// may be empty.
func MarshalImage(code []Instruction, src string) ([]byte, error) {
	img := Image{Format: ImageFormat.String(), Source: src, Code: code}
	b, err := yaml.Marshal(&img)
	if err != nil {
		return nil, errors.Wrap(err, "encoding image")
	}
	return b, nil
}

// UnmarshalImage decodes and validates an image.
func UnmarshalImage(data []byte) (*Image, error) {
	var img Image
	if err := yaml.Unmarshal(data, &img); err != nil {
		return nil, errors.Wrap(err, "decoding image")
	}
	if img.Format == "" {
		return nil, errors.New("image has no format version")
	}
	v, err := semver.Parse(img.Format)
	if err != nil {
		return nil, errors.Wrapf(err, "image format %q", img.Format)
	}
	if v.Major != ImageFormat.Major {
		return nil, errors.Errorf("image format %s is incompatible with %s", v, ImageFormat)
	}
	if err := Validate(context.Background(), img.Code).Err(); err != nil {
		return nil, errors.Wrap(err, "invalid image")
	}
	return &img, nil
}

// Listing renders code as a numbered disassembly, one instruction per line.
func Listing(code []Instruction) string {
	var b strings.Builder
	for pc, ins := range code {
		if ins.Op == LABEL {
			fmt.Fprintf(&b, "%4d %s:\n", pc, ins.Label)
			continue
		}
		fmt.Fprintf(&b, "%4d     %s\n", pc, ins)
	}
	return b.String()
}
