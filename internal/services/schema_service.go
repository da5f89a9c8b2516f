package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"sql_dashboard/internal/apperrors"
	"sql_dashboard/internal/database"
	"sql_dashboard/internal/graph"
	"sql_dashboard/internal/models"
	"sql_dashboard/internal/repositories"
	"sql_dashboard/internal/session"
	"sql_dashboard/internal/utils"
)

const (
	maxJunctionTableColumns = 6
	minJunctionTableFKs     = 2
)

// SessionSchema is the introspected schema of one session together with
// its relationship graph.
type SessionSchema struct {
	Schema *models.SchemaModel
	Graph  *graph.RelationshipGraph
}

type SchemaService struct {
	registry   *session.Registry
	schemaRepo *repositories.SchemaRepository
	cache      *lru.Cache[string, *SessionSchema]
	logger     *zap.Logger
}

func NewSchemaService(registry *session.Registry, schemaRepo *repositories.SchemaRepository, cacheSize int, logger *zap.Logger) (*SchemaService, error) {
	cache, err := lru.New[string, *SessionSchema](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema cache: %w", err)
	}
	return &SchemaService{
		registry:   registry,
		schemaRepo: schemaRepo,
		cache:      cache,
		logger:     logger,
	}, nil
}

func cacheKey(sessionID string) string {
	if models.IsSharedSession(sessionID) {
		return models.SharedSessionID
	}
	return sessionID
}

// Load returns the session's handle and its schema, introspecting and
// building the graph on first use.
func (s *SchemaService) Load(ctx context.Context, sessionID string) (*database.Handle, *SessionSchema, error) {
	handle, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, nil, err
	}

	key := cacheKey(sessionID)
	if cached, ok := s.cache.Get(key); ok {
		return handle, cached, nil
	}

	schema, err := s.schemaRepo.Introspect(ctx, handle)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to introspect schema: %w", err)
	}
	loaded := &SessionSchema{Schema: schema, Graph: graph.New(schema)}
	s.cache.Add(key, loaded)

	s.logger.Debug("schema loaded",
		zap.String("session_id", sessionID),
		zap.Int("tables", len(schema.Tables)),
		zap.Int("relationships", len(schema.Relationships)),
	)
	return handle, loaded, nil
}

// Evict drops the cached schema of a session.
func (s *SchemaService) Evict(sessionID string) {
	s.cache.Remove(cacheKey(sessionID))
}

func (s *SchemaService) GetSchema(ctx context.Context, sessionID string) (*models.SchemaModel, error) {
	_, loaded, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return loaded.Schema, nil
}

// FindPath returns the shortest relationship path between two tables.
func (s *SchemaService) FindPath(ctx context.Context, sessionID, from, to string) (*graph.Path, error) {
	_, loaded, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{from, to} {
		if _, ok := loaded.Schema.Table(name); !ok {
			return nil, apperrors.Validation("unknown table: %s", name)
		}
	}

	path, ok := loaded.Graph.FindPath(from, to)
	if !ok {
		return nil, apperrors.Validation("no relationship path from %s to %s", from, to)
	}
	return path, nil
}

// Related returns the tables directly linked to table by a foreign key.
func (s *SchemaService) Related(ctx context.Context, sessionID, table string) ([]string, error) {
	_, loaded, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, ok := loaded.Schema.Table(table); !ok {
		return nil, apperrors.Validation("unknown table: %s", table)
	}
	return loaded.Graph.Related(table), nil
}

// VisualizeSchema generates a Mermaid ER diagram of a session's schema.
func (s *SchemaService) VisualizeSchema(ctx context.Context, sessionID string) (string, error) {
	schema, err := s.GetSchema(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return generateMermaid(schema, buildDiagramRelationships(schema)), nil
}

type diagramRelationship struct {
	left, kind, right string
}

func buildDiagramRelationships(schema *models.SchemaModel) []diagramRelationship {
	var relationships []diagramRelationship
	junctionTables := detectJunctionTables(schema)

	for _, table := range schema.Tables {
		fks := schema.ForeignKeysFrom(table.Name)

		// Junction tables collapse into many-to-many links between the
		// tables they reference.
		if junctionTables[table.Name] {
			for i := 0; i < len(fks); i++ {
				for j := i + 1; j < len(fks); j++ {
					relationships = append(relationships, diagramRelationship{
						left:  fks[i].ToTable,
						kind:  "}o--o{",
						right: fks[j].ToTable,
					})
				}
			}
			continue
		}

		for _, fk := range fks {
			relationships = append(relationships, diagramRelationship{
				left:  fk.ToTable,
				kind:  "||--o{",
				right: table.Name,
			})
		}
	}
	return relationships
}

func detectJunctionTables(schema *models.SchemaModel) map[string]bool {
	junctionTables := make(map[string]bool)
	for _, table := range schema.Tables {
		fks := schema.ForeignKeysFrom(table.Name)
		pks := table.PrimaryKeys()
		if len(fks) < minJunctionTableFKs ||
			len(pks) < minJunctionTableFKs ||
			len(table.Columns) > maxJunctionTableColumns {
			continue
		}

		allFKsInPK := true
		for _, fk := range fks {
			for _, col := range fk.FromColumns {
				if !utils.Contains(pks, col) {
					allFKsInPK = false
				}
			}
		}
		if allFKsInPK {
			junctionTables[table.Name] = true
		}
	}
	return junctionTables
}

func generateMermaid(schema *models.SchemaModel, relationships []diagramRelationship) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")

	if len(relationships) > 0 {
		seen := make(map[diagramRelationship]bool)
		for _, rel := range relationships {
			if seen[rel] {
				continue
			}
			seen[rel] = true

			// Mermaid requires a label, an empty one hides it.
			fmt.Fprintf(&sb, "    %s %s %s : \"\"\n",
				mermaidName(rel.left),
				rel.kind,
				mermaidName(rel.right))
		}
		sb.WriteString("\n")
	}

	for _, table := range schema.Tables {
		fkColumns := map[string]bool{}
		for _, fk := range schema.ForeignKeysFrom(table.Name) {
			for _, col := range fk.FromColumns {
				fkColumns[col] = true
			}
		}
		fmt.Fprintf(&sb, "    %s {\n", mermaidName(table.Name))

		for _, col := range table.Columns {
			annotations := ""
			if col.PrimaryKey {
				annotations = " PK"
			}
			if fkColumns[col.Name] {
				annotations += " FK"
			}
			fmt.Fprintf(&sb, "        %s %s%s\n", simplifyDataType(col.Type), mermaidName(col.Name), annotations)
		}

		sb.WriteString("    }\n\n")
	}

	return sb.String()
}

var nonIdentChars = regexp.MustCompile(`[^A-Za-z0-9_]+`)

func mermaidName(name string) string {
	return strings.ToUpper(nonIdentChars.ReplaceAllString(name, "_"))
}

func simplifyDataType(dataType string) string {
	dt := strings.ToLower(strings.TrimSpace(dataType))

	switch {
	case dt == "":
		return "any"
	case dt == "integer" || dt == "int":
		return "int"
	case dt == "bigint":
		return "bigint"
	case dt == "smallint":
		return "smallint"
	case strings.HasPrefix(dt, "character varying"), strings.HasPrefix(dt, "varchar"):
		return "varchar"
	case strings.HasPrefix(dt, "character"), strings.HasPrefix(dt, "char"):
		return "char"
	case dt == "text":
		return "text"
	case strings.HasPrefix(dt, "timestamp with time zone"):
		return "timestamptz"
	case strings.HasPrefix(dt, "timestamp"), dt == "datetime":
		return "timestamp"
	case strings.HasPrefix(dt, "time without time zone"):
		return "time"
	case dt == "date":
		return "date"
	case dt == "boolean" || dt == "bool":
		return "boolean"
	case strings.HasPrefix(dt, "numeric"):
		return "numeric"
	case strings.HasPrefix(dt, "decimal"):
		return "decimal"
	case dt == "real":
		return "real"
	case dt == "double precision" || dt == "double":
		return "double"
	case dt == "json":
		return "json"
	case dt == "jsonb":
		return "jsonb"
	case dt == "uuid":
		return "uuid"
	case dt == "bytea" || dt == "blob":
		return "blob"
	case strings.HasPrefix(dt, "array"):
		return "array"
	default:
		return nonIdentChars.ReplaceAllString(dt, "_")
	}
}
