// Package record defines the persisted form of a project tree and converts
// between records and live domain nodes.
//
// A Record mirrors one node: its kind tag, identity, kind-specific
// attributes and ordered children. Parameters are stored as a loose map so
// JSON and YAML documents can be decoded without knowing the kind up front;
// Build decodes them into the typed parameter records.
package record
