/*
Package domain contains the core types shared by every layer of the NTrode container.

It defines the cyclic states, the handler capability contract and the error taxonomy.
This package is kept free of I/O and persistence so that handlers, adapters and the
container can all depend on it.

# Key Entities

  - State: one of OFF, INIT, INPUT, PROCESS, OUTPUT.
  - Handler: a pluggable stage driven by the container for every cyclic state.
  - HandlerSpec: the declarative (kind, config) pair a handler is built from.
  - LifecycleHooks: observational callbacks fired by the container.
*/
package domain
