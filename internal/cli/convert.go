package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boozegar/anthroshim/pkg/adaptor"
)

// NewConvertCommand returns the batch openai-to-anthropic converter.
func NewConvertCommand() *cobra.Command {
	var (
		inPath      string
		outPath     string
		mode        string
		keepUnknown bool
		keepSummary bool
	)

	cmd := &cobra.Command{
		Use:   "openai-to-anthropic",
		Short: "Convert an OpenAI Responses payload to Anthropic Messages shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(inPath)
			if err != nil {
				return err
			}
			var data interface{}
			if err := json.Unmarshal(raw, &data); err != nil {
				return fmt.Errorf("parse %s: %w", inPath, err)
			}

			out, err := adaptor.ConvertOpenAIToAnthropic(data, adaptor.Mode(mode), adaptor.ItemOptions{
				KeepUnknown:          keepUnknown,
				KeepReasoningSummary: keepSummary,
			})
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(outPath, append(encoded, '\n'), 0o644)
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "input JSON file")
	cmd.Flags().StringVar(&outPath, "out", "", "output JSON file")
	cmd.Flags().StringVar(&mode, "mode", "auto", "input shape: auto, input, response, or output")
	cmd.Flags().BoolVar(&keepUnknown, "keep-unknown", false, "serialize unknown items into text blocks")
	cmd.Flags().BoolVar(&keepSummary, "keep-reasoning-summary", false, "convert reasoning summaries into thinking blocks")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// NewStreamConvertCommand returns the NDJSON stream converter.
func NewStreamConvertCommand() *cobra.Command {
	var (
		inPath      string
		outPath     string
		model       string
		messageID   string
		keepSummary bool
	)

	cmd := &cobra.Command{
		Use:   "openai-stream-to-anthropic-stream",
		Short: "Convert OpenAI streaming events (NDJSON) to Anthropic streaming events (NDJSON)",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(inPath)
			if err != nil {
				return err
			}
			defer in.Close()

			out, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer out.Close()

			writer := bufio.NewWriter(out)
			defer writer.Flush()

			conv := adaptor.NewStreamConverter(adaptor.StreamOptions{
				Model:                model,
				MessageID:            messageID,
				KeepReasoningSummary: keepSummary,
			})
			writeEvents := func(events []map[string]interface{}) error {
				for _, ev := range events {
					encoded, err := json.Marshal(ev)
					if err != nil {
						return err
					}
					if _, err := writer.Write(append(encoded, '\n')); err != nil {
						return err
					}
				}
				return nil
			}

			scanner := bufio.NewScanner(in)
			scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
			for scanner.Scan() {
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}
				var ev map[string]interface{}
				if err := json.Unmarshal(line, &ev); err != nil {
					return fmt.Errorf("parse event: %w", err)
				}
				if err := writeEvents(conv.Push(ev)); err != nil {
					return err
				}
			}
			if err := scanner.Err(); err != nil {
				return err
			}
			return writeEvents(conv.Finish())
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "input NDJSON file of OpenAI events")
	cmd.Flags().StringVar(&outPath, "out", "", "output NDJSON file of Anthropic events")
	cmd.Flags().StringVar(&model, "model", "unknown", "model name for the message envelope")
	cmd.Flags().StringVar(&messageID, "message-id", "", "message id (default: generated)")
	cmd.Flags().BoolVar(&keepSummary, "keep-reasoning-summary", false, "emit reasoning summaries as thinking blocks")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
