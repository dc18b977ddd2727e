// Package splunkd is a client SDK for the splunkd management REST API. It
// covers authenticating, running and monitoring search jobs, listing
// configuration resources, and submitting events, and it owns the two pieces
// all of those lean on:
//
// 1. Feed parsing
//
//    splunkd answers most requests with an Atom-style XML feed. ReadFeed and
//    ReadEntry turn those documents into Feed and Entry values over a
//    streaming markup Reader, and an entry's content becomes a dynamically
//    typed Value tree (Scalar, List or Dict) with the server's dotted wire
//    keys folded into nested dicts. Parsing is all-or-nothing: any structural
//    surprise is a format error and no partial document is returned.
//
// 2. Argument serialization
//
//    Request parameters are plain structs whose fields carry an `args` tag
//    naming the wire parameter and its position. Enumerate turns a holder
//    into an ordered list of (name, value) Arguments, suppressing values that
//    match their declared defaults, expanding slices into repeated
//    parameters, and rejecting unset required fields. The descriptor table
//    for each holder type is built once and cached.
//
// On top of that sit Service (URL construction, namespaces, session keys,
// the HTTP verbs), Job (dispatch, polling, results), and collection listing
// helpers. The sessioncache subpackage persists session keys between CLI
// runs, and the kafka subpackage moves event data between Kafka topics and a
// splunkd deployment in either direction.
package splunkd
