package stream

import (
	"reflect"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shaj13/libcache"

	// Provides libcache.LRU
	_ "github.com/shaj13/libcache/lru"
)

// mappingCacheSize bounds the number of (struct type, column set) mappings kept around.
const mappingCacheSize = 256

// RowProcessor converts result set rows into arrays, maps or structs.
type RowProcessor struct {
	// TagName is the struct tag consulted before the field name when mapping columns.
	TagName string

	mappings libcache.Cache
}

// NewRowProcessor returns a RowProcessor that maps struct fields by their `db` tag.
func NewRowProcessor() *RowProcessor {
	return &RowProcessor{
		TagName:  "db",
		mappings: libcache.LRU.New(mappingCacheSize),
	}
}

// ToArray returns one value per column in column order.
func (p *RowProcessor) ToArray(rs ResultSet) ([]interface{}, error) {
	cols, err := rs.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "failed to read columns")
	}

	values := make([]interface{}, len(cols))
	dest := make([]interface{}, len(cols))
	for idx := range values {
		dest[idx] = &values[idx]
	}

	if err := rs.Scan(dest...); err != nil {
		return nil, eris.Wrap(err, "failed to scan row")
	}

	for idx, value := range values {
		// drivers may reuse the buffer on the next row
		if raw, ok := value.([]byte); ok {
			values[idx] = append([]byte(nil), raw...)
		}
	}

	return values, nil
}

// ToMap returns the row as a map from lower-cased column name to value. If two columns
// share a name, the later one wins.
func (p *RowProcessor) ToMap(rs ResultSet) (map[string]interface{}, error) {
	cols, err := rs.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "failed to read columns")
	}

	values, err := p.ToArray(rs)
	if err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, len(cols))
	for idx, col := range cols {
		result[strings.ToLower(col)] = values[idx]
	}
	return result, nil
}

type mappingKey struct {
	typ  reflect.Type
	cols string
}

// ToStruct scans the current row into dst, which must be a non-nil pointer to a struct.
// Columns without a matching field are discarded.
func (p *RowProcessor) ToStruct(rs ResultSet, dst interface{}) error {
	ptr := reflect.ValueOf(dst)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() || ptr.Elem().Kind() != reflect.Struct {
		return eris.Errorf("expected a pointer to a struct, got %T", dst)
	}

	cols, err := rs.Columns()
	if err != nil {
		return eris.Wrap(err, "failed to read columns")
	}

	target := ptr.Elem()
	mapping := p.mapping(target.Type(), cols)

	dest := make([]interface{}, len(cols))
	for idx, fieldIdx := range mapping {
		if fieldIdx == nil {
			dest[idx] = new(interface{})
		} else {
			dest[idx] = target.FieldByIndex(fieldIdx).Addr().Interface()
		}
	}

	if err := rs.Scan(dest...); err != nil {
		return eris.Wrapf(err, "failed to scan row into %s", target.Type())
	}
	return nil
}

// mapping returns the field index path for each column (nil for unmatched columns).
func (p *RowProcessor) mapping(typ reflect.Type, cols []string) [][]int {
	key := mappingKey{typ: typ, cols: strings.Join(cols, "\x00")}
	if cached, ok := p.mappings.Load(key); ok {
		return cached.([][]int)
	}

	byName := make(map[string][]int)
	byTag := make(map[string][]int)
	for _, field := range reflect.VisibleFields(typ) {
		if !field.IsExported() || field.Anonymous || !reachable(typ, field.Index) {
			continue
		}

		if tag := field.Tag.Get(p.TagName); tag != "" {
			name := strings.ToLower(strings.Split(tag, ",")[0])
			if name == "-" {
				continue
			}
			byTag[name] = field.Index
			continue
		}

		name := normalizeName(field.Name)
		if _, exists := byName[name]; !exists {
			byName[name] = field.Index
		}
	}

	result := make([][]int, len(cols))
	for idx, col := range cols {
		if fieldIdx, ok := byTag[strings.ToLower(col)]; ok {
			result[idx] = fieldIdx
		} else if fieldIdx, ok := byName[normalizeName(col)]; ok {
			result[idx] = fieldIdx
		}
	}

	p.mappings.Store(key, result)
	return result
}

// reachable reports whether the field at index can be addressed without following a
// pointer to an embedded struct.
func reachable(typ reflect.Type, index []int) bool {
	for _, idx := range index[:len(index)-1] {
		typ = typ.Field(idx).Type
		if typ.Kind() != reflect.Struct {
			return false
		}
	}
	return true
}

func normalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}
