package shader

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Directives are WGSL line comments starting with //@oxy: that the shader package expands
// before compilation:
//
//	//@oxy:include <struct>                          paste a registered struct definition
//	//@oxy:group <group> <binding> <space> <var> <struct|array<struct>>
//	                                                 declare a buffer of a registered struct
//	//@oxy:provider <group> <binding> <provider> [<role>]
//	                                                 tag the hand-written binding below it
//
// <space> is storage_uniform, storage_read or storage_read_write.
const directivePrefix = "//@oxy:"

// ErrDirective is wrapped by every malformed or unresolvable directive.
var ErrDirective = errors.New("shader: bad @oxy directive")

// StructKey names a WGSL struct registered with RegisterStruct.
type StructKey string

// Provider names the owner of a hand-written binding.
type Provider string

// Role qualifies one binding of a provider's group.
type Role string

// ProviderGBuffer owns the G-buffer textures sampled by the lighting pass.
const ProviderGBuffer Provider = "gbuffer"

// G-buffer roles.
const (
	RolePositionTarget Role = "position_target"
	RoleAlbedoTarget   Role = "albedo_target"
	RoleNormalTarget   Role = "normal_target"
)

var providerRoles = map[Provider][]Role{
	ProviderGBuffer: {RolePositionTarget, RoleAlbedoTarget, RoleNormalTarget},
}

var addressSpaces = map[string]string{
	"storage_uniform":    "var<uniform>",
	"storage_read":       "var<storage, read>",
	"storage_read_write": "var<storage, read_write>",
}

// Declaration is a binding declared by a group or provider directive.
type Declaration struct {
	Group, Binding int

	// Struct and Var are set by group directives.
	Struct StructKey
	Var    string

	// Provider and Role are set by provider directives.
	Provider Provider
	Role     Role

	// Line is the 1-based source line of the directive.
	Line int
}

type registeredStruct struct {
	typeName string
	source   string
}

var (
	registryMu sync.RWMutex
	registry   = map[StructKey]registeredStruct{}
)

// RegisterStruct makes a WGSL struct available to include and group directives. GPU type
// packages call it from init. Registering a key twice under different type names panics.
//
// Parameters:
//   - key: the name directives use
//   - typeName: the WGSL struct name that source declares
//   - source: the struct definition
func RegisterStruct(key StructKey, typeName, source string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if prev, ok := registry[key]; ok && prev.typeName != typeName {
		panic(fmt.Sprintf("shader: struct %q registered as both %s and %s", key, prev.typeName, typeName))
	}
	registry[key] = registeredStruct{typeName: typeName, source: source}
}

func lookupStruct(key StructKey) (registeredStruct, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[key]
	return s, ok
}

// expandDirectives replaces every directive line with its WGSL and returns the binding
// declarations in source order. A struct included twice is emitted once.
func expandDirectives(src string) (string, []Declaration, error) {
	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines))
	included := make(map[StructKey]bool)
	var decls []Declaration

	for i, line := range lines {
		body, ok := strings.CutPrefix(strings.TrimSpace(line), directivePrefix)
		if !ok {
			out = append(out, line)
			continue
		}
		fail := func(format string, args ...any) error {
			return fmt.Errorf("%w: line %d: %s", ErrDirective, i+1, fmt.Sprintf(format, args...))
		}
		args := strings.Fields(body)
		if len(args) == 0 {
			return "", nil, fail("empty directive")
		}

		switch args[0] {
		case "include":
			if len(args) != 2 {
				return "", nil, fail("include takes one struct")
			}
			key := StructKey(args[1])
			s, ok := lookupStruct(key)
			if !ok {
				return "", nil, fail("unknown struct %q", key)
			}
			if !included[key] {
				included[key] = true
				out = append(out, s.source)
			}

		case "group":
			if len(args) != 6 {
				return "", nil, fail("group takes group, binding, space, var and struct")
			}
			g, b, err := groupBinding(args[1], args[2])
			if err != nil {
				return "", nil, fail("%v", err)
			}
			space, ok := addressSpaces[args[3]]
			if !ok {
				return "", nil, fail("unknown address space %q", args[3])
			}
			key, isArray := strings.CutPrefix(args[5], "array<")
			key = strings.TrimSuffix(key, ">")
			s, ok := lookupStruct(StructKey(key))
			if !ok {
				return "", nil, fail("unknown struct %q", key)
			}
			typ := s.typeName
			if isArray {
				typ = "array<" + typ + ">"
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", g, b, space, args[4], typ))
			decls = append(decls, Declaration{Group: g, Binding: b, Struct: StructKey(key), Var: args[4], Line: i + 1})

		case "provider":
			if len(args) < 4 || len(args) > 5 {
				return "", nil, fail("provider takes group, binding, provider and an optional role")
			}
			g, b, err := groupBinding(args[1], args[2])
			if err != nil {
				return "", nil, fail("%v", err)
			}
			p := Provider(args[3])
			roles, ok := providerRoles[p]
			if !ok {
				return "", nil, fail("unknown provider %q", p)
			}
			d := Declaration{Group: g, Binding: b, Provider: p, Line: i + 1}
			if len(args) == 5 {
				d.Role = Role(args[4])
				if !slices.Contains(roles, d.Role) {
					return "", nil, fail("provider %s has no role %q", p, d.Role)
				}
			}
			decls = append(decls, d)

		default:
			return "", nil, fail("unknown directive %q", args[0])
		}
	}
	return strings.Join(out, "\n"), decls, nil
}

func groupBinding(group, binding string) (int, int, error) {
	g, err := strconv.Atoi(group)
	if err != nil || g < 0 {
		return 0, 0, fmt.Errorf("group %q is not an index", group)
	}
	b, err := strconv.Atoi(binding)
	if err != nil || b < 0 {
		return 0, 0, fmt.Errorf("binding %q is not an index", binding)
	}
	return g, b, nil
}
