// Package softap wires the access point together.
//
// Start resolves the static network identity and then runs three tasks
// side by side: the wireless supervisor, the packet stack runner and the
// DHCP lease server. It returns once the link is up and the static
// configuration is applied. Each task's terminal result is published on
// Results and reflected in Status; a failed task does not stop the others.
package softap
