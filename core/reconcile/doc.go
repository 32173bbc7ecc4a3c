// Package reconcile compares two snapshots of a PTA vehicle configuration file and
// classifies every row of the newer one.
//
// There is no stable row identifier across snapshots, so rows are matched on a
// correspondence key made of:
//   - the composite key: the schema's configured key columns that exist in both
//     snapshots, compared after normalization (see package normalize), and
//   - the duplicate sequence: the 0-based rank of a row among the rows sharing the
//     same composite key, in file order.
//
// The Nth duplicate in the old file is only ever matched with the Nth duplicate in
// the new file.
//
// # Pipeline
//
//  1. Origin ids are assigned from row positions (position + Spec.OriginOffset).
//  2. Both snapshots are normalized.
//  3. The key columns are resolved against both snapshots.
//  4. Rows are sequenced within their key group.
//  5. A full outer join on (key, sequence) tags rows both / old_only / new_only.
//  6. Spring references and masses are read from the joined rows.
//  7. Mass difference, mass status and reference status are derived.
//  8. Rows are classified: new_only is New, both is Spring Changed or Unchanged,
//     old_only is dropped.
//  9. Metadata columns are attached to a copy of the raw new snapshot, in new file order.
//
// Reconcile is a pure function of its inputs. Cache adds TTL-based memoization
// keyed by a digest of both snapshots, with singleflight protection for
// concurrent identical requests.
//
// # Usage Example
//
//	spec := reconcile.NewSpec(schema.VP)
//	report, err := reconcile.Reconcile(oldSnap, newSnap, spec)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(report.Summary.SpringChanged)
package reconcile
