package postgres

import (
	"reflect"
	"sync"
)

// column maps a db-tagged struct field to its index path, so values in
// embedded structs (entity.BaseEntity, entity.Document) are reachable
// without recursing at read time.
type column struct {
	name string
	path []int
}

type structInfo struct {
	columns []column
}

var structCache sync.Map // map[reflect.Type]*structInfo

func infoFor(t reflect.Type) *structInfo {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if cached, ok := structCache.Load(t); ok {
		return cached.(*structInfo)
	}

	info := &structInfo{}
	if t.Kind() == reflect.Struct {
		collectColumns(t, nil, info)
	}

	structCache.Store(t, info)
	return info
}

func collectColumns(t reflect.Type, prefix []int, info *structInfo) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		path := append(append([]int(nil), prefix...), i)

		if field.Anonymous {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collectColumns(ft, path, info)
			}
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}

		info.columns = append(info.columns, column{name: tag, path: path})
	}
}

// ExtractDBColumns lists the column names a struct maps to, taken from its
// "db" tags in declaration order, embedded structs included.
//
//	ExtractDBColumns[product.Product]()
//	// ["id", "version", ..., "supplier_id", "name", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	info := infoFor(reflect.TypeOf(zero))

	names := make([]string, len(info.columns))
	for i, c := range info.columns {
		names[i] = c.name
	}
	return names
}

// StructToMap converts a struct to a column->value map using "db" tags.
// Fields without a tag or tagged "-" are skipped. Reflection metadata is
// computed once per type and cached.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	info := infoFor(rv.Type())

	res := make(map[string]any, len(info.columns))
	for _, c := range info.columns {
		res[c.name] = rv.FieldByIndex(c.path).Interface()
	}
	return res
}
