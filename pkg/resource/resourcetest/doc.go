// Package resourcetest provides a conformance suite for resource.Store
// implementations and a counting wrapper used to assert how many backing
// operations a piece of code performs.
//
// Every store package runs the suite from its own test file:
//
//	func TestConformance(t *testing.T) {
//	    resourcetest.RunConformanceSuite(t, func(t *testing.T) resource.Store {
//	        return memory.New()
//	    })
//	}
package resourcetest
