package report

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"forensia/internal/db"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestRenderProducesPDF(t *testing.T) {
	name := "C. Subject"
	data := DocumentData{
		Case: testCase(),
		Patients: []db.Patient{{
			ID:   "p1",
			Name: &name,
			Chart: db.Chart{
				"11": db.ScalarValue("intact"),
				"18": db.GroupValue(map[string]string{"condition": "caries"}),
			},
		}},
		Evidence: []db.Evidence{{
			ID:       "e1",
			Kind:     db.EvidenceImage,
			Content:  "photographic record",
			FileKeys: []string{"cases/c1/evidence/shot.png"},
			Location: &db.Geo{Longitude: 10.5, Latitude: -20.3},
		}},
		NarrativeText: "Automated analysis text.",
		GeneratedAt:   time.Now(),
		LogoKey:       "assets/logo.png",
	}

	img := pngBytes(t)
	r := NewRenderer(func(ctx context.Context, key string) ([]byte, error) {
		return img, nil
	})

	out, err := r.Render(context.Background(), BuildLayout(data))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not start with %%PDF, got %q", out[:min(16, len(out))])
	}
}

func TestRenderSurvivesImageFailures(t *testing.T) {
	data := DocumentData{
		Case: testCase(),
		Evidence: []db.Evidence{{
			ID:   "e1",
			Kind: db.EvidenceImage,
			FileKeys: []string{
				"cases/c1/evidence/missing.png",
				"cases/c1/evidence/corrupt.jpg",
				"cases/c1/evidence/weird.tiff",
			},
		}},
		GeneratedAt: time.Now(),
	}

	r := NewRenderer(func(ctx context.Context, key string) ([]byte, error) {
		switch {
		case bytes.Contains([]byte(key), []byte("missing")):
			return nil, errors.New("no such key")
		default:
			return []byte("not an image"), nil
		}
	})

	out, err := r.Render(context.Background(), BuildLayout(data))
	if err != nil {
		t.Fatalf("a bad image must not abort the document: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
}

func TestRenderSkipsMissingLogo(t *testing.T) {
	data := DocumentData{
		Case:        testCase(),
		GeneratedAt: time.Now(),
		LogoKey:     "assets/logo.png",
	}

	r := NewRenderer(func(ctx context.Context, key string) ([]byte, error) {
		return nil, errors.New("not stored")
	})

	out, err := r.Render(context.Background(), BuildLayout(data))
	if err != nil {
		t.Fatalf("missing logo must not abort the document: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
}
