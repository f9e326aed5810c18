// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

/*
Package supervisor runs the long-lived parts of vidrec under a suture v4
supervisor tree.

# Layout

	Root ("vidrec")
	├── Storage ("storage-layer")
	│   └── BadgerGCService (badger backend only)
	├── Engine ("engine-layer")
	│   ├── MaintenanceService
	│   └── EventService (when events are enabled)
	└── API ("api-layer")
	    └── HTTPServerService

A crashed service is restarted by its own layer supervisor; repeated
failures back off for FailureBackoff. Events from the tree are logged
through sutureslog into the zerolog pipeline.

Service implementations live in the services subpackage.
*/
package supervisor
