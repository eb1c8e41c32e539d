// Package docs provides Swagger/OpenAPI documentation for the alert core's
// command and event surface.
package docs

// General API Info
//
//	@title						hmi-core Alert API
//	@version					1.0.0
//	@description				HTTP command surface and WebSocket event stream for the refrigeration
//	@description				alert core: active alert listing, mute control, and connectivity status.
//
//	@license.name				MIT
//
//	@host						localhost:8043
//	@BasePath					/api/v1
//	@schemes					http https
//
//	@tag.name					Alerts
//	@tag.description			Active alert listing and removal
//	@tag.name					Mute
//	@tag.description			Buzzer mute status and toggle
//	@tag.name					Network
//	@tag.description			Internet reachability check
//	@tag.name					Status
//	@tag.description			MQTT and database realtime connection status
//	@tag.name					WebSocket
//	@tag.description			Real-time alert and status event streaming
