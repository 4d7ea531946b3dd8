// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lexdesk/internal/config"
	"lexdesk/internal/engine"
	"lexdesk/internal/execution"
	"lexdesk/internal/fieldtype"
	"lexdesk/internal/identity"
	"lexdesk/internal/middleware"
	"lexdesk/internal/models"
)

type renderFlags struct {
	data     string
	user     string
	sequence int64
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.data, "data", "", "JSON file with field values (- for stdin)")
	cmd.Flags().StringVar(&f.user, "user", "lexdeskctl", "name rendered as usuario_atual")
	cmd.Flags().Int64Var(&f.sequence, "sequence", 1, "value rendered as numero_sequencial")
}

// fileTemplate serves a single template loaded from disk.
type fileTemplate struct{ t *models.TemplateDefinition }

func (f fileTemplate) FindWithFields(context.Context, uuid.UUID) (*models.TemplateDefinition, error) {
	return f.t, nil
}

// discardRecords hands out a fixed sequence number and keeps nothing.
type discardRecords struct{ seq int64 }

func (d discardRecords) CreateWithCounter(_ context.Context, _ uuid.UUID, build func(int64) (*models.ExecutionRecord, error)) (*models.ExecutionRecord, error) {
	return build(d.seq)
}

// localManager runs the execution manager against one template file
// without a database.
func localManager(tmpl *models.TemplateDefinition, seq int64) (*execution.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if seq < 1 {
		return nil, fmt.Errorf("sequence must be positive, got %d", seq)
	}
	tmpl.ExecutionCount = seq - 1
	return execution.New(fileTemplate{tmpl}, discardRecords{seq}, engine.New(nil), cfg.WorkspaceName, cfg.Location()), nil
}

func userContext(ctx context.Context, name string) context.Context {
	return identity.WithUser(ctx, identity.User{ID: name, Name: name})
}

func printFieldErrors(w io.Writer, errs []fieldtype.FieldError) {
	for _, e := range errs {
		fmt.Fprintf(w, "  - %s: %s\n", e.Field, e.Message)
	}
}

type scanReport struct {
	Name    string      `yaml:"name"`
	System  []string    `yaml:"system"`
	Defined []string    `yaml:"defined"`
	Orphans []string    `yaml:"orphans"`
	Fields  []scanField `yaml:"fields"`
}

type scanField struct {
	Key      string           `yaml:"key"`
	Type     models.FieldType `yaml:"type"`
	Required bool             `yaml:"required"`
	Used     bool             `yaml:"used"`
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <template.yaml>",
		Short: "List the placeholders of a template and how they resolve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := loadTemplate(args[0])
			if err != nil {
				return err
			}
			cl := engine.New(nil).Analyze(tmpl)

			used := make(map[string]bool, len(cl.Defined))
			for _, name := range cl.Defined {
				used[name] = true
			}
			report := scanReport{
				Name:    tmpl.Name,
				System:  cl.System,
				Defined: cl.Defined,
				Orphans: cl.Orphans,
			}
			for _, f := range tmpl.Fields {
				report.Fields = append(report.Fields, scanField{Key: f.Key, Type: f.Type, Required: f.IsRequired, Used: used[f.Key]})
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			return enc.Close()
		},
	}
}

func newPreviewCmd() *cobra.Command {
	var flags renderFlags
	cmd := &cobra.Command{
		Use:   "preview <template.yaml>",
		Short: "Render a template with markers for missing values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := loadTemplate(args[0])
			if err != nil {
				return err
			}
			data, err := loadData(flags.data, cmd.InOrStdin())
			if err != nil {
				return err
			}
			m, err := localManager(tmpl, flags.sequence)
			if err != nil {
				return err
			}

			res, err := m.PreviewTemplate(userContext(cmd.Context(), flags.user), tmpl, execution.Request{Data: data})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Render.Rendered)
			if !res.Valid() {
				fmt.Fprintln(cmd.ErrOrStderr(), "validation errors:")
				printFieldErrors(cmd.ErrOrStderr(), res.Errors)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newRenderCmd() *cobra.Command {
	var (
		flags renderFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "render <template.yaml>",
		Short: "Validate data and write the final document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := loadTemplate(args[0])
			if err != nil {
				return err
			}
			data, err := loadData(flags.data, cmd.InOrStdin())
			if err != nil {
				return err
			}
			m, err := localManager(tmpl, flags.sequence)
			if err != nil {
				return err
			}

			rec, err := m.Execute(userContext(cmd.Context(), flags.user), execution.Request{Data: data})
			var verr *execution.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintln(cmd.ErrOrStderr(), "validation errors:")
				printFieldErrors(cmd.ErrOrStderr(), verr.Errors)
				return errInvalidData
			}
			if err != nil {
				return err
			}

			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), rec.GeneratedContent)
				return nil
			}
			if err := os.WriteFile(out, []byte(rec.GeneratedContent), 0o644); err != nil {
				return fmt.Errorf("write document: %w", err)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the document to this file instead of stdout")
	return cmd
}

func newRetryCmd() *cobra.Command {
	var (
		api  string
		user string
	)
	cmd := &cobra.Command{
		Use:   "retry <execution-id>",
		Short: "Ask the server to re-send a failed delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid execution id %q", args[0])
			}
			rec, err := retryDelivery(cmd.Context(), api, user, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "execution %s: %s (retry %d)\n", rec.ID, rec.WebhookStatus, rec.RetryCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&api, "api", envOr("LEXDESK_API", "http://localhost:8080"), "base URL of the LexDesk server")
	cmd.Flags().StringVar(&user, "user", "lexdeskctl", "user ID sent to the server")
	return cmd
}

func retryDelivery(ctx context.Context, api, user string, id uuid.UUID) (*models.ExecutionRecord, error) {
	endpoint, err := url.JoinPath(api, "api", "executions", id.String(), "retry")
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(middleware.HeaderUserID, user)

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Message == "" {
			return nil, fmt.Errorf("retry failed: %s", resp.Status)
		}
		return nil, fmt.Errorf("retry failed: %s (%s)", body.Error.Message, body.Error.Code)
	}

	var rec models.ExecutionRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &rec, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
