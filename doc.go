// Package ngtgo provides an embedded graph and tree based approximate
// nearest neighbor index for Go.
//
// Objects are fixed length vectors stored as float32, float16 or uint8.
// They are linked into a neighborhood graph whose traversal is seeded by a
// vantage point tree. A search expands the closest frontier node until no
// candidate lies within (1+epsilon) times the current worst result.
//
// # Quick Start
//
//	prop := ngtgo.NewProperty()
//	_ = prop.SetDimension(128)
//	_ = prop.SetDistanceType(distance.MetricL2)
//
//	idx, _ := ngtgo.CreateGraphAndTree(ctx, "./index", prop)
//	defer idx.Close()
//
//	id, _ := idx.Insert(vec)
//	results, _ := idx.Search(query, 10, 0.1, -1)
//	_ = idx.Save(ctx, "./index")
//
// # Insert Modes
//
// Insert links an object immediately. Append only stores it; CreateIndex
// then links all appended objects in parallel batches:
//
//	for _, v := range vectors {
//	    idx.Append(v)
//	}
//	idx.CreateIndex(ctx, runtime.GOMAXPROCS(0))
//
// BatchInsert and BatchAppend process many vectors at once. Items fail
// independently; failed items get ID 0 and a *BatchItemError.
//
// # Removal
//
// Remove tombstones an object. It is never returned again, but its node
// keeps connecting the graph until Rebuild compacts the graph and releases
// the IDs of removed objects for reuse.
//
// # Persistence
//
// An index is saved as four blobs: the YAML property file and the object,
// graph and tree sections. Save and Open use a local directory; SaveTo and
// OpenFrom accept any blobstore.Store, including the S3 and MinIO stores.
//
// # Errors
//
// Errors can be matched with errors.Is against the sentinels of this
// package (ErrNotFound, ErrCorruptData, ErrClosed, ...). Dimension
// mismatches are reported as *DimensionMismatchError.
package ngtgo
