package postgres

import (
	"fmt"
	"listing-service/internal/core/domain"
	"strings"
)

// Базовый предикат видимости для публичных выборок
var visibleConditions = []string{
	"p.status = 'approved'",
	"p.is_active = true",
	"p.deleted_at IS NULL",
}

const newestFirstOrder = "ORDER BY p.created_at DESC, p.id DESC"

type queryBuilder struct {
	conditions []string
	args       []interface{}
	argId      int
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{
		argId:      1,
		conditions: make([]string, 0, 8),
		args:       make([]interface{}, 0),
	}
}

// visibleOnly добавляет базовый предикат явным вызовом, а не по умолчанию
func (qb *queryBuilder) visibleOnly() *queryBuilder {
	qb.conditions = append(qb.conditions, visibleConditions...)
	return qb
}

func (qb *queryBuilder) addCondition(condition string, fieldName string, arg interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf(condition, fieldName, qb.argId))
	qb.args = append(qb.args, arg)
	qb.argId++
}

// AddMoneyRange - границы включительно, аргументы передаются в копейках
func (qb *queryBuilder) AddMoneyRange(fieldName string, min *domain.Money, max *domain.Money) {
	if min != nil {
		qb.addCondition("%s >= ($%d::bigint / 100.0)", fieldName, min.Cents())
	}
	if max != nil {
		qb.addCondition("%s <= ($%d::bigint / 100.0)", fieldName, max.Cents())
	}
}

// nextArg резервирует позицию под аргумент вне WHERE (LIMIT, OFFSET)
func (qb *queryBuilder) nextArg(arg interface{}) string {
	placeholder := fmt.Sprintf("$%d", qb.argId)
	qb.args = append(qb.args, arg)
	qb.argId++
	return placeholder
}

// build создает WHERE и аргументы
func (qb *queryBuilder) build() (string, []interface{}) {
	whereClause := ""
	if len(qb.conditions) > 0 {
		whereClause = "WHERE " + strings.Join(qb.conditions, " AND ")
	}
	return whereClause, qb.args
}

// applySearchFilters разбирает пользовательские фильтры поверх базового предиката
func applySearchFilters(filters domain.SearchFilters) *queryBuilder {
	qb := newQueryBuilder().visibleOnly()

	if filters.City != "" {
		qb.addCondition("%s = $%d", "p.city", filters.City)
	}
	if filters.Type != "" {
		qb.addCondition("%s = $%d", "p.type", string(filters.Type))
	}
	// Минимум спален, а не точное совпадение
	if filters.Bedrooms != nil {
		qb.addCondition("%s >= $%d", "p.bedrooms", *filters.Bedrooms)
	}
	qb.AddMoneyRange("p.price", filters.MinPrice, filters.MaxPrice)

	return qb
}

// searchQueries возвращает COUNT-запрос, запрос страницы и аргументы обоих.
// Аргументы COUNT - префикс аргументов страницы.
func searchQueries(filters domain.SearchFilters) (countSQL string, countArgs []interface{}, pageSQL string, pageArgs []interface{}) {
	filters = filters.Normalize()
	qb := applySearchFilters(filters)

	whereClause, args := qb.build()
	countArgs = append([]interface{}(nil), args...)
	countSQL = fmt.Sprintf("SELECT COUNT(*) FROM properties p %s", whereClause)

	limit := qb.nextArg(filters.PerPage)
	offset := qb.nextArg(filters.Offset())
	pageSQL = fmt.Sprintf("SELECT %s FROM properties p %s %s LIMIT %s OFFSET %s",
		propertyColumns, whereClause, newestFirstOrder, limit, offset)

	return countSQL, countArgs, pageSQL, qb.args
}

func listAllQuery() string {
	whereClause, _ := newQueryBuilder().visibleOnly().build()
	return fmt.Sprintf("SELECT %s FROM properties p %s %s", propertyColumns, whereClause, newestFirstOrder)
}

func featuredQuery(q domain.FeaturedQuery) (string, []interface{}) {
	qb := newQueryBuilder().visibleOnly()
	qb.conditions = append(qb.conditions, "p.is_featured = true")
	qb.addCondition("%s > $%d", "p.featured_until", q.Now)
	whereClause, _ := qb.build()
	limit := qb.nextArg(q.Limit)
	return fmt.Sprintf("SELECT %s FROM properties p %s %s LIMIT %s",
		propertyColumns, whereClause, newestFirstOrder, limit), qb.args
}

func similarQuery(q domain.SimilarQuery) (string, []interface{}) {
	qb := newQueryBuilder().visibleOnly()
	qb.addCondition("%s = $%d", "p.city", q.City)
	qb.addCondition("%s <> $%d", "p.id", q.PropertyID)
	whereClause, _ := qb.build()
	limit := qb.nextArg(q.Limit)
	return fmt.Sprintf("SELECT %s FROM properties p %s %s LIMIT %s",
		propertyColumns, whereClause, newestFirstOrder, limit), qb.args
}
