package config

import (
	"context"
	"strings"

	"bitbucket.org/mmdatafocus/fintrack_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileGuardPlugin enforces per-profile isolation by automatically scoping
// queries/updates/deletes to the request's profile_id when the model has a profile_id column.
//
// NOTE:
// - This does NOT apply to Raw SQL queries. Those must include profile_id manually.
// - Internal bypass (settlement runners) is explicit via context flag.
type ProfileGuardPlugin struct{}

func NewProfileGuardPlugin() *ProfileGuardPlugin { return &ProfileGuardPlugin{} }

func (p *ProfileGuardPlugin) Name() string { return "profile_guard" }

func (p *ProfileGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("profile_guard:query", profileGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("profile_guard:row", profileGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("profile_guard:update", profileGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("profile_guard:delete", profileGuardCallback); err != nil {
		return err
	}
	return nil
}

func profileGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil {
		return
	}
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	if shouldBypassProfileScope(ctx) {
		return
	}
	profileID := profileIdFromContext(ctx)
	if profileID == "" {
		return
	}

	// Only apply if the current model/table includes a profile_id column.
	if db.Statement.Schema == nil {
		return
	}
	hasProfileID := false
	for _, f := range db.Statement.Schema.Fields {
		if strings.EqualFold(f.DBName, "profile_id") {
			hasProfileID = true
			break
		}
	}
	if !hasProfileID {
		return
	}

	// Don't duplicate an explicit profile filter.
	if whereHasProfileID(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: "profile_id"},
				Value:  profileID,
			},
		},
	})
}

func profileIdFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(appctx.ContextKeyProfileId).(string); ok && v != "" {
		return v
	}
	return ""
}

func shouldBypassProfileScope(ctx context.Context) bool {
	if v, ok := ctx.Value(appctx.ContextKeySkipProfileScope).(bool); ok && v {
		return true
	}
	return false
}

func whereHasProfileID(c clause.Clause) bool {
	if c.Expression == nil {
		return false
	}
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasProfileID(e) {
			return true
		}
	}
	return false
}

func exprHasProfileID(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return colIsProfileID(v.Column)
	case clause.Neq:
		return colIsProfileID(v.Column)
	case clause.Gt:
		return colIsProfileID(v.Column)
	case clause.Gte:
		return colIsProfileID(v.Column)
	case clause.Lt:
		return colIsProfileID(v.Column)
	case clause.Lte:
		return colIsProfileID(v.Column)
	case clause.IN:
		return colIsProfileID(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasProfileID(x) {
				return true
			}
		}
		return false
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprHasProfileID(x) {
				return true
			}
		}
		return false
	case clause.Expr:
		// Best-effort for raw expressions.
		return strings.Contains(strings.ToLower(v.SQL), "profile_id")
	default:
		return false
	}
}

func colIsProfileID(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, "profile_id")
	case clause.Column:
		return strings.EqualFold(c.Name, "profile_id")
	default:
		return false
	}
}
