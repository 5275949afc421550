package scheme

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

type KnownTypesRegistry interface {
	// AddKnownTypes registers pointers to structs under the group, kind is the struct name
	AddKnownTypes(g Group, types ...interface{})
	// NewObject returns a pointer to a new zero value of the registered type
	NewObject(gk GroupKind) (interface{}, error)
	ObjectKind(obj interface{}) (GroupKind, error)
}

func NewKnownTypesRegistry() KnownTypesRegistry {
	return &knownTypesRegistry{gkToType: map[GroupKind]reflect.Type{}, typeToGK: map[reflect.Type]GroupKind{}}
}

type knownTypesRegistry struct {
	gkToType map[GroupKind]reflect.Type
	// the reflect.Type we index by is never a pointer
	typeToGK map[reflect.Type]GroupKind
}

func (r *knownTypesRegistry) AddKnownTypes(g Group, types ...interface{}) {
	if g.Empty() {
		panic("group is required on all types")
	}

	for _, obj := range types {
		structType := getStructType(obj)
		gk := GroupKind{Group: g, Kind: structType.Name()}

		if oldT, found := r.gkToType[gk]; found && oldT != structType {
			panic(fmt.Sprintf("Double registration of different types for %v: old=%v.%v, new=%v.%v", gk, oldT.PkgPath(), oldT.Name(), structType.PkgPath(), structType.Name()))
		}

		r.gkToType[gk] = structType
		r.typeToGK[structType] = gk
	}
}

func (r *knownTypesRegistry) NewObject(gk GroupKind) (interface{}, error) {
	t, exists := r.gkToType[gk]

	if !exists {
		return nil, errors.Errorf("type %s is not registered in KnownTypes", gk.String())
	}

	return reflect.New(t).Interface(), nil
}

func (r *knownTypesRegistry) ObjectKind(obj interface{}) (GroupKind, error) {
	structType := getStructType(obj)
	gk, ok := r.typeToGK[structType]
	if !ok {
		return GroupKind{}, errors.Errorf("no kind is registered in schema for the type %s", structType.Name())
	}

	return gk, nil
}

// GetStructType returns the struct type behind a value or a pointer
func GetStructType(obj interface{}) reflect.Type {
	return getStructType(obj)
}

func getStructType(obj interface{}) reflect.Type {
	structType := reflect.TypeOf(obj)

	if structType == nil {
		panic("nil is not a type")
	}

	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}

	if structType.Kind() != reflect.Struct {
		panic("all types must be pointers to structs")
	}

	return structType
}
