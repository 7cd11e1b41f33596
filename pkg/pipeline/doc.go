// Package pipeline provides a sequential pipeline of named units.
//
// A pipeline is built from an ordered list of descriptors, each naming a registered unit type and
// its static parameters. Units run one after another. Before a unit is built, its static parameters
// are overlaid with the result of the previous unit, so the previous result wins on any key
// collision. Once the unit succeeds its result replaces the accumulated state entirely; keys from
// older units do not survive unless the last unit returned them again.
//
// The pipeline stops on the first unit that fails to build or run. Run returns a Report describing
// where it stopped together with the error, so callers can detect the failure without reading logs.
// Units that already completed keep their side effects: downloaded files and written CSVs stay where
// they are.
//
// Every stage is logged: pipeline start, unit start with its parameters, unit failure, unit output and
// pipeline end. Values implementing Summarizer, such as tables, are logged by their summary only.
package pipeline
