// Package render drives the document/style pipeline for the command line:
// parse the HTML input, cascade its embedded stylesheets and write one of
// the tree renditions.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"weft/html"
	"weft/state"
	"weft/style"
	"weft/utils/debug"
)

// Run implements the dump subcommand.
func Run(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return errors.New("no input file specified")
	}
	if cmd.Args().Len() > 2 {
		env.Log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	src := cmd.Args().Get(0)
	dst := cmd.Args().Get(1)

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read input document: %w", err)
	}

	tb := html.NewTreeBuilder(string(data), env.Log)
	if err := tb.Run(); err != nil {
		return fmt.Errorf("unable to parse input document: %w", err)
	}
	root := tb.Document()
	env.Log.Info("Document parsed",
		zap.String("source", src),
		zap.Int("stylesheets", len(tb.Stylesheets())),
		zap.Int("problems", len(tb.Warnings)))
	for _, w := range tb.Warnings {
		env.Log.Debug("Recovered parse problem", zap.String("detail", w))
	}

	var out string
	switch {
	case cmd.Bool("xml"):
		if out, err = debug.DOMToXML(root); err != nil {
			return fmt.Errorf("unable to serialize document: %w", err)
		}
	case cmd.Bool("dom"):
		out = debug.DumpDOM(root)
	default:
		tree, err := style.BuildTree(root, tb.Stylesheets(), env.Log)
		if err != nil {
			return fmt.Errorf("unable to build styled tree: %w", err)
		}
		vp := style.Viewport{
			Width:  env.Cfg.Engine.ViewportWidth,
			Height: env.Cfg.Engine.ViewportHeight,
		}
		env.Log.Debug("Cascade complete",
			zap.Float64("viewport_width", vp.Width),
			zap.Float64("viewport_height", vp.Height),
			zap.Float64("root_font_size", tree.FontSize(vp)))
		out = debug.DumpStyledTree(tree)
	}

	return writeResult(dst, out)
}

func writeResult(dst, out string) (err error) {
	if dst == "" {
		_, err = os.Stdout.WriteString(out)
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer func() {
		if er := f.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close output file: %w", er))
		}
	}()
	if _, err = f.WriteString(out); err != nil {
		return fmt.Errorf("unable to write output file: %w", err)
	}
	return nil
}
