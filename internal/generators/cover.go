package generators

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"lessonforge/internal/fileutil"
	"lessonforge/internal/logging"
	"lessonforge/internal/services"
)

// CoverRequest describes the cover for one lesson.
type CoverRequest struct {
	Title      string
	Subtitle   string
	SeriesID   string
	ScriptPath string
	Output     string
}

// CoverRenderer produces a cover image at req.Output.
type CoverRenderer interface {
	RenderCover(ctx context.Context, req CoverRequest) error
}

const coverJPEGQuality = 90

// CoverStyle configures the built-in renderer.
type CoverStyle struct {
	Width      int
	Height     int
	FontPath   string
	Background string
	Foreground string
}

// BuiltinCover draws the title and subtitle centred on a solid background.
type BuiltinCover struct {
	style  CoverStyle
	logger *slog.Logger
}

// NewBuiltinCover constructs the in-process renderer.
func NewBuiltinCover(style CoverStyle, logger *slog.Logger) *BuiltinCover {
	if style.Width <= 0 {
		style.Width = 1280
	}
	if style.Height <= 0 {
		style.Height = 720
	}
	return &BuiltinCover{style: style, logger: logging.NewComponentLogger(logger, "cover")}
}

// RenderCover writes the cover as JPEG when req.Output ends in .jpg or .jpeg
// and as PNG otherwise.
func (b *BuiltinCover) RenderCover(ctx context.Context, req CoverRequest) error {
	if err := ctx.Err(); err != nil {
		return services.Generation("cover", "render", req.Output, err)
	}
	w, h := float64(b.style.Width), float64(b.style.Height)
	dc := gg.NewContext(b.style.Width, b.style.Height)

	if err := setHexColor(dc, b.style.Background); err != nil {
		return services.Generation("cover", "background colour", req.Output, err)
	}
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	if err := setHexColor(dc, b.style.Foreground); err != nil {
		return services.Generation("cover", "foreground colour", req.Output, err)
	}
	dc.DrawRectangle(w*0.1, h*0.62, w*0.8, h*0.008)
	dc.Fill()

	titleFace, scale, err := b.face(h / 9)
	if err != nil {
		return services.Generation("cover", "load font", req.Output, err)
	}
	b.drawText(dc, titleFace, scale, req.Title, w/2, h*0.42, w*0.8)

	if sub := strings.TrimSpace(req.Subtitle); sub != "" {
		subFace, subScale, err := b.face(h / 18)
		if err != nil {
			return services.Generation("cover", "load font", req.Output, err)
		}
		b.drawText(dc, subFace, subScale, sub, w/2, h*0.72, w*0.8)
	}
	if series := strings.TrimSpace(req.SeriesID); series != "" {
		smallFace, smallScale, err := b.face(h / 30)
		if err != nil {
			return services.Generation("cover", "load font", req.Output, err)
		}
		b.drawText(dc, smallFace, smallScale, strings.ToUpper(series), w/2, h*0.9, w*0.8)
	}

	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return services.Generation("cover", "prepare output directory", req.Output, err)
	}
	partial := fileutil.PartialPath(req.Output)
	format := coverFormat(req.Output)
	if err := saveCover(partial, format, dc); err != nil {
		fileutil.Discard(partial)
		return services.Generation("cover", "encode "+format, req.Output, err)
	}
	if err := fileutil.Commit(partial, req.Output); err != nil {
		return services.Generation("cover", "commit", req.Output, err)
	}
	logging.WithContext(ctx, b.logger).Info("cover rendered",
		logging.String(logging.FieldEventType, "cover_generated"),
		logging.String("output", req.Output),
		logging.String("renderer", "builtin"),
	)
	return nil
}

func coverFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	}
	return "png"
}

func saveCover(path, format string, dc *gg.Context) error {
	if format == "jpeg" {
		return gg.SaveJPG(path, dc.Image(), coverJPEGQuality)
	}
	return dc.SavePNG(path)
}

// face returns a font face for the requested pixel size. Without a configured
// TrueType font the fixed 13px basic face is used and scaled up when drawing.
func (b *BuiltinCover) face(size float64) (font.Face, float64, error) {
	if path := strings.TrimSpace(b.style.FontPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, 0, fmt.Errorf("read font file: %w", err)
		}
		parsed, err := truetype.Parse(data)
		if err != nil {
			return nil, 0, fmt.Errorf("parse TTF: %w", err)
		}
		return truetype.NewFace(parsed, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone}), 1, nil
	}
	return basicfont.Face7x13, size / 13, nil
}

func (b *BuiltinCover) drawText(dc *gg.Context, face font.Face, scale float64, text string, cx, cy, width float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	dc.Push()
	defer dc.Pop()
	dc.SetFontFace(face)
	if scale != 1 {
		dc.ScaleAbout(scale, scale, cx, cy)
		width /= scale
	}
	dc.DrawStringWrapped(text, cx, cy, 0.5, 0.5, width, 1.3, gg.AlignCenter)
}

func setHexColor(dc *gg.Context, hex string) error {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	switch len(trimmed) {
	case 3, 6, 8:
	default:
		return fmt.Errorf("invalid hex colour %q", hex)
	}
	for _, r := range trimmed {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return fmt.Errorf("invalid hex colour %q", hex)
		}
	}
	dc.SetHexColor(trimmed)
	return nil
}

// CommandCover delegates rendering to an external command. Supported
// placeholders are {output}, {title}, {subtitle}, {series} and {script}.
type CommandCover struct {
	argv    []string
	timeout time.Duration
	run     commandRunner
	logger  *slog.Logger
}

// NewCommandCover constructs a command-backed renderer.
func NewCommandCover(argv []string, timeout time.Duration, logger *slog.Logger) *CommandCover {
	return &CommandCover{
		argv:    append([]string(nil), argv...),
		timeout: timeout,
		run:     defaultCommandRunner,
		logger:  logging.NewComponentLogger(logger, "cover"),
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (c *CommandCover) WithCommandRunner(r func(ctx context.Context, name string, args ...string) error) {
	if c != nil && r != nil {
		c.run = r
	}
}

// RenderCover runs the configured command.
func (c *CommandCover) RenderCover(ctx context.Context, req CoverRequest) error {
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return services.Generation("cover", "prepare output directory", req.Output, err)
	}
	partial := fileutil.PartialPath(req.Output)
	argv := expandTemplate(c.argv, map[string]string{
		"output":   partial,
		"title":    req.Title,
		"subtitle": req.Subtitle,
		"series":   req.SeriesID,
		"script":   req.ScriptPath,
	})
	if err := runBounded(ctx, c.run, c.timeout, argv); err != nil {
		fileutil.Discard(partial)
		return services.Generation("cover", "command", req.Output, err)
	}
	if err := fileutil.Commit(partial, req.Output); err != nil {
		return services.Generation("cover", "command", req.Output, err)
	}
	logging.WithContext(ctx, c.logger).Info("cover rendered",
		logging.String(logging.FieldEventType, "cover_generated"),
		logging.String("output", req.Output),
		logging.String("renderer", "command"),
	)
	return nil
}
