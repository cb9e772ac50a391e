package samal

import (
	"fmt"
	"sort"
	"strings"
)

// DatatypeCategory tags the Datatype variant (spec §3 "Datatype").
type DatatypeCategory int

const (
	CategoryInvalid DatatypeCategory = iota
	CategoryI32
	CategoryI64
	CategoryF32
	CategoryF64
	CategoryChar
	CategoryBool
	CategoryByte
	CategoryString
	CategoryTuple
	CategoryList
	CategoryFunction
	CategoryStruct
	CategoryEnum
	CategoryPointer
	CategoryUndeterminedIdentifier
)

// StructElement is one named, possibly-lazy field of a StructInfo or
// EnumInfo variant (spec §3 "Fields/variants may themselves be lazy").
type StructElement struct {
	Name     string
	BaseType Datatype
	// LazyType, when non-nil, overrides BaseType: it resolves the field's
	// type against the template-parameter environment captured at the
	// point CompleteWithTemplateParameters was called on the owning
	// struct/enum (spec §4.E).
	LazyType func() Datatype
}

func (e StructElement) resolve() Datatype {
	if e.LazyType != nil {
		return e.LazyType()
	}
	return e.BaseType
}

// StructInfo names a struct (or enum) type: its fields/variants and the
// template parameter names it was declared with.
type StructInfo struct {
	Name           string
	Elements       []StructElement
	TemplateParams []string
}

// Datatype is the structural type tagged-variant (spec §3). Zero value is
// CategoryInvalid. Construct via the New* helpers below; fields are
// unexported because validity depends on Category (mirroring the teacher's
// cfgVal discipline in config.go of "tagged value, panics if misused").
type Datatype struct {
	category DatatypeCategory

	// function
	funcReturn *Datatype
	funcParams []Datatype

	// tuple
	tupleElems []Datatype

	// list / pointer
	inner *Datatype

	// struct / enum
	structInfo *StructInfo

	// undetermined_identifier
	identName string
}

func NewPrimitive(cat DatatypeCategory) Datatype { return Datatype{category: cat} }

func NewFunctionType(ret Datatype, params []Datatype) Datatype {
	return Datatype{category: CategoryFunction, funcReturn: &ret, funcParams: params}
}

func NewTupleType(elems ...Datatype) Datatype {
	return Datatype{category: CategoryTuple, tupleElems: elems}
}

func NewListType(elem Datatype) Datatype {
	return Datatype{category: CategoryList, inner: &elem}
}

func NewPointerType(elem Datatype) Datatype {
	return Datatype{category: CategoryPointer, inner: &elem}
}

func NewUndeterminedIdentifier(name string) Datatype {
	return Datatype{category: CategoryUndeterminedIdentifier, identName: name}
}

// NewStructType sorts fields by name, matching the teacher-neighboring
// original's deterministic field ordering (stable struct layout for
// compiled field-offset lookups).
func NewStructType(name string, fields []StructElement, templateParams []string) Datatype {
	sorted := append([]StructElement(nil), fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return Datatype{category: CategoryStruct, structInfo: &StructInfo{Name: name, Elements: sorted, TemplateParams: templateParams}}
}

func NewEnumType(name string, variants []StructElement, templateParams []string) Datatype {
	d := NewStructType(name, variants, templateParams)
	d.category = CategoryEnum
	return d
}

func (d Datatype) Category() DatatypeCategory { return d.category }

func (d Datatype) IsInteger() bool {
	return d.category == CategoryI32 || d.category == CategoryI64
}

func (d Datatype) FunctionTypeInfo() (Datatype, []Datatype) {
	if d.category != CategoryFunction {
		panic("Datatype.FunctionTypeInfo: not a function type")
	}
	return *d.funcReturn, d.funcParams
}

func (d Datatype) TupleInfo() []Datatype {
	if d.category != CategoryTuple {
		panic("Datatype.TupleInfo: not a tuple type")
	}
	return d.tupleElems
}

func (d Datatype) ListInfo() Datatype {
	if d.category != CategoryList {
		panic("Datatype.ListInfo: not a list type")
	}
	return *d.inner
}

func (d Datatype) PointerInfo() Datatype {
	if d.category != CategoryPointer {
		panic("Datatype.PointerInfo: not a pointer type")
	}
	return *d.inner
}

func (d Datatype) UndeterminedIdentifierInfo() string {
	if d.category != CategoryUndeterminedIdentifier {
		panic("Datatype.UndeterminedIdentifierInfo: not an undetermined identifier")
	}
	return d.identName
}

func (d Datatype) StructInfo() StructInfo {
	if d.category != CategoryStruct && d.category != CategoryEnum {
		panic("Datatype.StructInfo: not a struct or enum type")
	}
	return *d.structInfo
}

// Equal is structural equality (spec §3 invariant: "== is structural").
func (d Datatype) Equal(other Datatype) bool {
	if d.category != other.category {
		return false
	}
	switch d.category {
	case CategoryFunction:
		if len(d.funcParams) != len(other.funcParams) {
			return false
		}
		for i := range d.funcParams {
			if !d.funcParams[i].Equal(other.funcParams[i]) {
				return false
			}
		}
		return d.funcReturn.Equal(*other.funcReturn)
	case CategoryTuple:
		if len(d.tupleElems) != len(other.tupleElems) {
			return false
		}
		for i := range d.tupleElems {
			if !d.tupleElems[i].Equal(other.tupleElems[i]) {
				return false
			}
		}
		return true
	case CategoryList, CategoryPointer:
		return d.inner.Equal(*other.inner)
	case CategoryStruct, CategoryEnum:
		return d.structInfo.Name == other.structInfo.Name
	case CategoryUndeterminedIdentifier:
		return d.identName == other.identName
	default:
		return true
	}
}

func (d Datatype) String() string {
	switch d.category {
	case CategoryI32:
		return "i32"
	case CategoryI64:
		return "i64"
	case CategoryF32:
		return "f32"
	case CategoryF64:
		return "f64"
	case CategoryChar:
		return "char"
	case CategoryBool:
		return "bool"
	case CategoryByte:
		return "byte"
	case CategoryString:
		return "string"
	case CategoryFunction:
		parts := make([]string, len(d.funcParams))
		for i, p := range d.funcParams {
			parts[i] = p.String()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(parts, ","), d.funcReturn.String())
	case CategoryTuple:
		parts := make([]string, len(d.tupleElems))
		for i, e := range d.tupleElems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	case CategoryList:
		return "[" + d.inner.String() + "]"
	case CategoryPointer:
		return "*" + d.inner.String()
	case CategoryStruct:
		return "<struct " + d.structInfo.Name + ">"
	case CategoryEnum:
		return "<enum " + d.structInfo.Name + ">"
	case CategoryUndeterminedIdentifier:
		return "<undetermined '" + d.identName + "'>"
	default:
		return "<invalid datatype>"
	}
}

// GetSizeOnStack is defined for every category except
// CategoryUndeterminedIdentifier (spec §3 invariant); this implementation
// follows the uniform 8-byte-slot discipline resolved as Open Question 1,
// so every pointer-like/primitive value is 8 bytes and only tuples recurse.
func (d Datatype) GetSizeOnStack() int {
	switch d.category {
	case CategoryUndeterminedIdentifier:
		panic("Datatype.GetSizeOnStack: undetermined identifier has no size")
	case CategoryTuple:
		sum := 0
		for _, e := range d.tupleElems {
			sum += e.GetSizeOnStack()
		}
		return sum
	default:
		return 8
	}
}

// CompleteWithTemplateParameters recursively substitutes every
// undetermined_identifier(n) present in d by params[n], continuing
// recursively if the substitution itself is templated; struct/enum fields
// capture the environment into lazy thunks instead of resolving eagerly
// (spec §4.E).
func (d Datatype) CompleteWithTemplateParameters(params map[string]Datatype) Datatype {
	switch d.category {
	case CategoryFunction:
		ret := d.funcReturn.CompleteWithTemplateParameters(params)
		newParams := make([]Datatype, len(d.funcParams))
		for i, p := range d.funcParams {
			newParams[i] = p.CompleteWithTemplateParameters(params)
		}
		return NewFunctionType(ret, newParams)
	case CategoryUndeterminedIdentifier:
		if replacement, ok := params[d.identName]; ok {
			if replacement.category == CategoryStruct || replacement.category == CategoryEnum ||
				(replacement.HasUndeterminedTemplateTypes() && !replacement.Equal(d)) {
				return replacement.CompleteWithTemplateParameters(params)
			}
			return replacement
		}
		return d
	case CategoryTuple:
		elems := make([]Datatype, len(d.tupleElems))
		for i, e := range d.tupleElems {
			elems[i] = e.CompleteWithTemplateParameters(params)
		}
		return NewTupleType(elems...)
	case CategoryList:
		inner := d.inner.CompleteWithTemplateParameters(params)
		return NewListType(inner)
	case CategoryPointer:
		inner := d.inner.CompleteWithTemplateParameters(params)
		return NewPointerType(inner)
	case CategoryStruct, CategoryEnum:
		envCopy := make(map[string]Datatype, len(params))
		for k, v := range params {
			envCopy[k] = v
		}
		newElems := make([]StructElement, len(d.structInfo.Elements))
		for i, el := range d.structInfo.Elements {
			base := el
			newElems[i] = StructElement{
				Name: el.Name,
				LazyType: func() Datatype {
					return base.resolve().CompleteWithTemplateParameters(envCopy)
				},
			}
		}
		cpy := *d.structInfo
		cpy.Elements = newElems
		result := d
		result.structInfo = &cpy
		return result
	default:
		return d
	}
}

// HasUndeterminedTemplateTypes is true iff any subterm is
// undetermined_identifier, or a struct/enum field hasn't been lazily
// resolved yet (spec §3 invariant).
func (d Datatype) HasUndeterminedTemplateTypes() bool {
	switch d.category {
	case CategoryUndeterminedIdentifier:
		return true
	case CategoryFunction:
		if d.funcReturn.HasUndeterminedTemplateTypes() {
			return true
		}
		for _, p := range d.funcParams {
			if p.HasUndeterminedTemplateTypes() {
				return true
			}
		}
		return false
	case CategoryTuple:
		for _, e := range d.tupleElems {
			if e.HasUndeterminedTemplateTypes() {
				return true
			}
		}
		return false
	case CategoryList, CategoryPointer:
		return d.inner.HasUndeterminedTemplateTypes()
	case CategoryStruct, CategoryEnum:
		for _, el := range d.structInfo.Elements {
			if el.LazyType == nil {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// InferTemplateTypes unifies an incomplete pattern (d, possibly containing
// undetermined_identifier subterms) against a fully-known instance,
// extending out with every binding discovered. It fails if pattern and
// instance disagree structurally (spec §4.E).
func (d Datatype) InferTemplateTypes(instance Datatype, out map[string]Datatype) error {
	if d.category == CategoryUndeterminedIdentifier {
		if existing, ok := out[d.identName]; ok {
			if !existing.Equal(instance) {
				return fmt.Errorf("template parameter %q bound to both %s and %s", d.identName, existing, instance)
			}
			return nil
		}
		out[d.identName] = instance
		return nil
	}
	if d.category != instance.category {
		return fmt.Errorf("cannot unify %s with %s", d, instance)
	}
	switch d.category {
	case CategoryFunction:
		if len(d.funcParams) != len(instance.funcParams) {
			return fmt.Errorf("cannot unify %s with %s: arity mismatch", d, instance)
		}
		for i := range d.funcParams {
			if err := d.funcParams[i].InferTemplateTypes(instance.funcParams[i], out); err != nil {
				return err
			}
		}
		return d.funcReturn.InferTemplateTypes(*instance.funcReturn, out)
	case CategoryTuple:
		if len(d.tupleElems) != len(instance.tupleElems) {
			return fmt.Errorf("cannot unify %s with %s: arity mismatch", d, instance)
		}
		for i := range d.tupleElems {
			if err := d.tupleElems[i].InferTemplateTypes(instance.tupleElems[i], out); err != nil {
				return err
			}
		}
		return nil
	case CategoryList, CategoryPointer:
		return d.inner.InferTemplateTypes(*instance.inner, out)
	default:
		if !d.Equal(instance) {
			return fmt.Errorf("cannot unify %s with %s", d, instance)
		}
		return nil
	}
}

func EmptyTupleType() Datatype { return NewTupleType() }
