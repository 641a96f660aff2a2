/*
Package handlers provides generic built-in handlers and the registry that knows them.

These handlers carry no signal-processing logic. They pace, count, move and log
values in the owner's memory so that containers can be assembled and exercised
from configuration alone:

  - counter: input handler advancing an item index, optionally up to a limit.
  - copy: moves a memory value from one name to another in a given state.
  - log: logs selected memory values through the owner's logger.
  - sleep: paces a state by waiting a fixed interval.
*/
package handlers
