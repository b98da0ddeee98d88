// Command pipelinedemo builds a small fixed plan — a constant-fill
// compute shader followed by a CPU color-invert step — runs it through
// the pipeline engine, and writes the result as a PNG.
package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/pixelpipe"
	"github.com/gogpu/pixelpipe/internal/config"
)

//go:embed shaders/constant_fill.wgsl
var constantFillWGSL string

func main() {
	configPath := flag.String("config", "", "path to a DemoConfig JSON file (defaults built in if omitted)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	fmt.Println("Pixel Pipeline Demo")
	fmt.Println("===================")
	fmt.Println()
	fmt.Printf("Canvas: %dx%d\n", cfg.Width, cfg.Height)

	if err := run(cfg, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.DemoConfig, verbose bool) error {
	ctx := context.Background()

	opts := []pixelpipe.EngineOption{
		pixelpipe.WithPipelineCacheSize(cfg.PipelineCacheSize),
		pixelpipe.WithTextureCacheSize(cfg.TextureCacheSize),
		pixelpipe.WithBufferCacheSize(cfg.BufferCacheSize),
	}
	if verbose {
		opts = append(opts, pixelpipe.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}

	start := time.Now()
	engine, err := pixelpipe.NewEngine(ctx, opts...)
	if err != nil {
		return fmt.Errorf("acquire engine: %w", err)
	}
	defer engine.Close()
	fmt.Printf("Engine ready... %v ✓\n", time.Since(start).Round(time.Millisecond))

	fillShader, err := pixelpipe.NewShaderModule("constant_fill", constantFillWGSL, engine.Device(), nil)
	if err != nil {
		return fmt.Errorf("compile constant_fill shader: %w", err)
	}

	invert := pixelpipe.NewCpuFunction("invert_rgb", invertRGB)

	plan := pixelpipe.NewPlan().
		AddWgsl(fillShader, nil, cfg.Width, cfg.Height).
		AddCpu(invert, nil, cfg.Width, cfg.Height)

	genStart := time.Now()
	packed, err := engine.Generate(ctx, plan)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	fmt.Printf("Generate... %v ✓\n", time.Since(genStart).Round(time.Millisecond))

	fmt.Println(engine.Stats())

	if dir := filepath.Dir(cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := savePNG(packed, cfg.Width, cfg.Height, cfg.OutputPath); err != nil {
		return fmt.Errorf("save output: %w", err)
	}

	fmt.Printf("Output: %s\n", cfg.OutputPath)
	return nil
}

// invertRGB flips every pixel's color channels while leaving alpha alone,
// exercising the GPU-to-CPU bridge with a trivially verifiable transform.
func invertRGB(inputs []pixelpipe.CpuInputImage, _ []byte) (pixelpipe.CpuOutput, error) {
	in := inputs[0]
	out := make([]float32, len(in.Data))
	for i := 0; i < len(in.Data); i += 4 {
		out[i] = 1 - in.Data[i]
		out[i+1] = 1 - in.Data[i+1]
		out[i+2] = 1 - in.Data[i+2]
		out[i+3] = in.Data[i+3]
	}
	return pixelpipe.CpuOutput{Data: out, Width: in.Width, Height: in.Height}, nil
}

func savePNG(packed []byte, w, h uint32, path string) error {
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	copy(img.Pix, packed)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
