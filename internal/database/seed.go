// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// demoBody is the body of the template seeded into an empty database.
const demoBody = `EXCELENTÍSSIMO SENHOR DOUTOR JUIZ DE DIREITO DA {{process_court}}

Processo nº {{process_number}}

{{client_name}}, inscrito(a) no CPF sob o nº {{client_document}}, vem, por seu advogado,
requerer a juntada do comprovante de pagamento no valor de {{valor}}.

{{nome_workspace}}, {{data_extenso}}.
{{usuario_atual}}`

// Seed populates an empty database with a demo client, process and
// template so a fresh development setup has something to execute. It does
// nothing when any template already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM templates").Scan(&count); err != nil {
		return fmt.Errorf("seed check templates: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var clientID string
	err = tx.QueryRow(`
		INSERT INTO clients (name, document, email, phone, city, state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, "Maria da Silva", "12345678909", "maria@example.com", "11987654321", "São Paulo", "SP").Scan(&clientID)
	if err != nil {
		return fmt.Errorf("seed insert client: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO processes (client_id, number, court, subject)
		VALUES ($1, $2, $3, $4)
	`, clientID, "00012345620268260100", "2ª Vara Cível da Comarca de São Paulo", "Cobrança")
	if err != nil {
		return fmt.Errorf("seed insert process: %w", err)
	}

	var templateID string
	err = tx.QueryRow(`
		INSERT INTO templates (name, category, body, is_shared, created_by)
		VALUES ($1, $2, $3, TRUE, 'seed')
		RETURNING id
	`, "Petição de juntada de comprovante", "civel", demoBody).Scan(&templateID)
	if err != nil {
		return fmt.Errorf("seed insert template: %w", err)
	}

	fields := []struct {
		key, label, typ string
		required        bool
	}{
		{"client_name", "Nome do Cliente", "text", true},
		{"client_document", "CPF do Cliente", "cpf", true},
		{"process_number", "Número do Processo", "process_number", true},
		{"process_court", "Vara", "text", false},
		{"valor", "Valor", "currency", true},
	}
	for i, f := range fields {
		_, err := tx.Exec(`
			INSERT INTO template_fields (template_id, field_key, label, type, is_required, display_order)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, templateID, f.key, f.label, f.typ, f.required, i)
		if err != nil {
			return fmt.Errorf("seed insert field %s: %w", f.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo template", "template_id", templateID)
	return nil
}
