// Package pkg provides the libraries behind mapknowledge, which turns SCKAN
// knowledge about neuron populations into connectivity for anatomical maps.
//
// # Overview
//
// SCKAN describes each neuron population as an ApiNATOMY model fragment: a
// "blob" of nodes and predicate-labelled edges covering lyphs, their layers,
// the chains linking them and the ontology terms they sit in. Map servers
// need something much smaller: the ordered hops of a path between
// anatomical regions, plus its axon and dendrite terminals.
//
// The packages are organised as:
//
//  1. Core: [blob], [graph], [simplify], [apinatomy] and [knowledge] hold
//     the data model and the deblob and connectivity algorithms. They do no
//     I/O.
//  2. Clients: [scicrunch] and [graphdb] fetch blobs and build knowledge
//     records, over [integrations] with the [cache] and [httputil] helpers.
//  3. Storage: [store] keeps records per knowledge source, and [pgimport]
//     loads them into the relational database read by map servers.
//  4. Services: [pipeline] ties a client to a store, [server] exposes it
//     over HTTP and [render] draws blobs with Graphviz.
//  5. Support: [config], [errors], [observability] and [buildinfo].
//
// # Data Flow
//
//	SciCrunch / Neo4j
//	       ↓
//	  [scicrunch] blob for a neuron population
//	       ↓
//	  [apinatomy] Deblob + ParseConnectivity
//	       ↓
//	  [knowledge] Record
//	       ↓
//	  [store] → [pgimport] → map server database
//
// # Quick Start
//
// Derive the connectivity of a path blob:
//
//	b, _ := blob.Import("keast-1.json")
//	conn, err := apinatomy.ParseConnectivity(b)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, hop := range conn.Connectivity {
//	    fmt.Println(hop[0], "→", hop[1])
//	}
//
// Look up knowledge with a local store in front of SciCrunch:
//
//	client := scicrunch.New(scicrunch.Options{Cache: c})
//	st, _ := store.Open(ctx, store.Options{Path: "knowledgebase.db"})
//	runner := pipeline.NewRunner(client, st, logger)
//	res, err := runner.Knowledge(ctx, "ilxtr:neuron-type-keast-1", pipeline.Options{})
//
// [blob]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/blob
// [graph]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/graph
// [simplify]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/simplify
// [apinatomy]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/apinatomy
// [knowledge]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/knowledge
// [scicrunch]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/scicrunch
// [graphdb]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/graphdb
// [integrations]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/integrations
// [cache]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/httputil
// [store]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/store
// [pgimport]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/pgimport
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/server
// [render]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/render
// [config]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/mapknowledge/pkg/buildinfo
package pkg
