// Package params turns estimator configuration into HyperParameter records.
//
// Every parameter value is first converted into a sealed Value, which knows
// its recorded type name and its string representation. Unsupported Go
// values fail conversion with a ConfigError naming the parameter.
//
// Composite configuration is flattened with qualified names. A parameter
// whose value is an estimator, and every sub-estimator of a composite, is
// emitted twice: once as itself (value is the full representation, type is
// the estimator's type name) and once per child parameter under
// "parent__child". Both forms are observable to consumers.
package params
