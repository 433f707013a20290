/*
Package streaming groups the multi-value sequence types used by the scheduling
system. The stream subpackage provides finite, lazy, single-use streams that
pools and managers return for enumerations such as "queue every member" or
"list every pool".
*/
package streaming
