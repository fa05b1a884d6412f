/*Package interval implements a disjoint-interval-set membership query over
  genomic coordinates, used by this module to represent pseudoautosomal
  region (PAR) boundaries.
  It assumes every position fits in a PosType, which is currently defined as
  int32 since that's what BAM files are limited to.
*/
package interval
